// Package client is the single path every outbound call to the banking API
// takes.
//
// # Overview
//
// Gateway wraps an http.Client with a request phase and a response phase:
//
//  1. Before sending, it snapshots the session token. An absent token means
//     the call goes out unauthenticated. An expired token is removed, a
//     SessionEvent with ReasonExpired is emitted, and the call still goes out
//     without credentials. A valid token is attached as a bearer credential.
//  2. After the call resolves, a 401 removes the token that was attached and
//     emits ReasonRejected; a 5xx is logged as "server error"; a transport
//     failure is logged as "transport failure" with kind network_unreachable
//     or timeout. The original failure is always returned to the caller.
//
// Token removal is keyed on the session epoch captured in the request phase,
// so concurrent 401s for the same token remove it and emit the event exactly
// once, and a late response cannot remove a token stored after it was sent.
//
// # Typed endpoints
//
// Each API route is an Endpoint[Req, Resp] value describing method, path and
// how Req maps to a body or query string. Call runs one through a Doer.
//
// # Error Handling
//
// Non-2xx responses are returned as *APIError, which matches ErrUnauthorized,
// ErrServerError or ErrRequestRejected under errors.Is. Transport failures
// are *TransportError and match ErrTransport (ErrUnavailable).
package client
