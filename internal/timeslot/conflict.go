package timeslot

// Conflict details an overlap between a candidate rule and an existing active
// rule on the same weekday.
type Conflict struct {
	WithRuleID string
	Weekday    string
	Start      MinuteOfDay
	End        MinuteOfDay
}

// DetectRuleConflicts identifies active rules whose interval overlaps the
// candidate on the same weekday. An inactive candidate never conflicts, and a
// rule never conflicts with itself, so updates can pass the stored rule set
// unchanged.
func DetectRuleConflicts(existing []Rule, candidate Rule) []Conflict {
	if !candidate.Active {
		return nil
	}

	var conflicts []Conflict
	for _, rule := range existing {
		if !rule.Active || rule.ID == candidate.ID || rule.Weekday != candidate.Weekday {
			continue
		}
		if candidate.Start < rule.End && rule.Start < candidate.End {
			conflicts = append(conflicts, Conflict{
				WithRuleID: rule.ID,
				Weekday:    rule.Weekday.String(),
				Start:      rule.Start,
				End:        rule.End,
			})
		}
	}
	return conflicts
}
