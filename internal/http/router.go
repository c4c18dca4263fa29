package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Settings     *SettingsHandler
	Availability *AvailabilityHandler
	Bookings     *BookingHandler
	// RequireAdmin wraps every /admin route. Leaving it nil exposes the
	// administrative surface unguarded; only tests do that.
	RequireAdmin func(http.Handler) http.Handler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	admin := func(h http.HandlerFunc) http.Handler {
		if cfg.RequireAdmin != nil {
			return cfg.RequireAdmin(h)
		}
		return h
	}

	if cfg.Bookings != nil {
		mux.HandleFunc("/slots", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Bookings.ListSlots(w, r)
		})
		mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Bookings.Create(w, r)
		})
		mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/bookings/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			ctx := ContextWithBookingID(r.Context(), id)
			cfg.Bookings.Cancel(w, r.WithContext(ctx))
		})

		mux.Handle("/admin/slots", admin(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Bookings.ListSlots(w, r)
		}))
		mux.Handle("/admin/bookings", admin(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Bookings.List(w, r)
		}))
	}

	if cfg.Settings != nil {
		mux.Handle("/admin/settings", admin(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Settings.Get(w, r)
			case http.MethodPut:
				cfg.Settings.Update(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		}))
	}

	if cfg.Availability != nil {
		mux.Handle("/admin/rules", admin(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Availability.ListRules(w, r)
			case http.MethodPost:
				cfg.Availability.CreateRule(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/admin/rules/", admin(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/admin/rules/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithRuleID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Availability.GetRule(w, r)
			case http.MethodPut:
				cfg.Availability.UpdateRule(w, r)
			case http.MethodDelete:
				cfg.Availability.DeleteRule(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		}))
		mux.Handle("/admin/exceptions", admin(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Availability.ListExceptions(w, r)
			case http.MethodPost:
				cfg.Availability.AddException(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/admin/exceptions/", admin(func(w http.ResponseWriter, r *http.Request) {
			date := strings.TrimPrefix(r.URL.Path, "/admin/exceptions/")
			if date == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			ctx := ContextWithDate(r.Context(), date)
			cfg.Availability.RemoveException(w, r.WithContext(ctx))
		}))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
