// Package http provides the REST handlers for terminal sessions and the
// service registry.
//
// Domain errors map to status codes: unknown sessions or services are 404,
// exited sessions are 409 and invalid input is 400.
package http
