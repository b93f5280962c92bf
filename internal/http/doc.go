// Package http exposes the reservation service as a JSON API.
//
// Every route except POST /sessions and DELETE /sessions/current requires a
// bearer token issued by POST /sessions (also accepted from the
// session_token cookie):
//   - POST /sessions, DELETE /sessions/current: login and logout.
//   - GET/POST /resources, GET/PUT/DELETE /resources/{id},
//     PUT /resources/{id}/image: resource catalog. Mutations are admin only.
//   - GET/POST /reservations, GET/PUT /reservations/{id},
//     POST /reservations/{id}/cancel, GET /reservations/conflicts: bookings.
//   - GET/PUT /settings, POST /settings/class-blocks/regenerate,
//     GET /settings/time-slots: school day configuration.
//   - GET/POST /users, GET/PUT/DELETE /users/{id}: account management.
//   - GET /dashboard: counters for the home page.
//
// Successful responses are {"success":true,"message":...,"data":...}.
// Failures are {"success":false,"message":...,"errors":{field:message}}
// with Portuguese messages; raw errors are only logged.
package http
