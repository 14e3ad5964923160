/*
Package server exposes the pet profile schedules over HTTP.

# Basic Usage

	store := memory.New()
	engine := recurrence.NewEngine()
	svc := schedule.NewService(store, engine)

	tokens, _ := auth.NewTokenProvider(secret, time.Hour)
	users := authmem.New()
	srv, err := server.New(server.Config{
		Service:       svc,
		Authenticator: users,
		Tokens:        tokens,
		Resolver:      auth.NewCachedResolver(tokens, authmem.NewTokenCache(), time.Hour),
	})
	if err != nil {
		log.Fatal(err)
	}
	http.ListenAndServe(":8080", srv)

# Routes

Every route lives under /profile-service. All but /health and /login need an
"Authorization: bearer <token>" header.

  - POST   /login                  - exchange email and password for a token
  - POST   /pets                   - register a pet
  - GET    /pets/{id}              - fetch a pet
  - POST   /schedules              - create a schedule
  - DELETE /schedules              - delete all of the caller's schedules
  - GET    /schedules/{id}         - fetch a schedule
  - PUT    /schedules/{id}         - replace a schedule
  - DELETE /schedules/{id}         - delete a schedule
  - GET    /schedules/preview      - the next five occurrences
  - GET    /schedules/day?date=&id= - schedules projected onto one date
  - GET    /schedules/month?date=  - occurrences by day for three months
  - GET    /schedules/search?key=  - text or pet name search
  - GET    /schedules/export.ics   - iCalendar export
  - GET    /health                 - liveness

Dates are formatted as 2006-01-02 and date-times as RFC 3339.

# Errors

Failures are JSON objects with a code and a message. Invalid input maps to
400, a missing schedule or pet to 404 and a missing or bad token to 401.
*/
package server
