// Package session owns the bearer session token.
//
// TokenStore is the only component that reads or writes the token; every
// other part of the client goes through it. The token lives in a
// session-scoped Storage under a single key (common.TokenStorageKey) and is
// never written to permanent device storage by this package.
//
// Validity is purely temporal: the middle (claims) segment of the token is
// decoded and its "exp" claim, in seconds since the epoch, is compared to the
// wall clock. Anything that cannot be decoded counts as expired.
//
// A monotonically increasing epoch is bumped on every store and remove.
// Callers that captured a Snapshot can later remove "the token they saw"
// with RemoveIfEpoch, which is a no-op once the session has moved on.
package session
