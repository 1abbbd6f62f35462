// Package sessionstore backs session.Storage with a SQLite table.
//
// The default DSN is ":memory:", which gives the same lifetime as a browser
// tab: the token lives only as long as the process. A file DSN lets the token
// survive a crash; a clean exit still removes it.
package sessionstore
