// Package http exposes the booking engine over a JSON API.
//
// Public surface:
//
//	GET    /slots?from=YYYY-MM-DD&to=YYYY-MM-DD   list available slots
//	POST   /bookings                              book a slot
//	DELETE /bookings/{id}                         cancel a booking
//
// Administrative surface, guarded by a bearer token:
//
//	GET    /admin/settings                        read the configuration
//	PUT    /admin/settings                        replace the configuration
//	GET    /admin/rules?weekday=monday            list availability rules
//	POST   /admin/rules                           create a rule
//	GET    /admin/rules/{id}                      read a rule
//	PUT    /admin/rules/{id}                      update a rule
//	DELETE /admin/rules/{id}                      delete a rule
//	GET    /admin/exceptions                      list exception dates
//	POST   /admin/exceptions                      add an exception date
//	DELETE /admin/exceptions/{date}               remove an exception date
//	GET    /admin/slots?include_full=true         list slots including full ones
//	GET    /admin/bookings                        list committed bookings
package http
