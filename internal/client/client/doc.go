// Package client is the single request pipeline of the cropdoc client.
//
// Every request goes through one resty client that
//   - resolves paths against a base URL fixed at construction,
//   - adds the Bypass-Tunnel-Reminder header,
//   - reads the current token from a TokenSource and, when there is one,
//     sends it as "Authorization: Bearer <token>",
//   - gives up after DefaultTimeout.
//
// Failures come back in three shapes: *APIError for non-2xx answers (the body
// is kept verbatim), ErrTimeout when the deadline fired, and ErrNetwork for
// anything else that kept the request from completing.
//
// The typed methods in endpoints.go decode each API response into the types
// of the models package.
package client
