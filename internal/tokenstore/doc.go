// Package tokenstore holds the client-local key-value storage the api client reads its access token from.
//
// The access token is kept as an opaque string under AccessTokenKey. It is written by the login flow
// (the cli `token set` command or the frontend server's /auth/token endpoint) and read on every outgoing api request.
//
// Three stores are provided:
//   - MemoryStore: process-local, used by tests and embedded callers
//   - FileStore: persists to a JSON file so the cli survives restarts
//   - CookieStore: request-scoped, backed by the browser's cookies in the frontend server
package tokenstore
