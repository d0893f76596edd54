// Package account provides the authentication and account lifecycle core
// of the user account service: signed session tokens, credential checks,
// account activation, password changes and role management.
//
// Tokens:
//   - TokenCodec signs HS256 tokens carrying the user resource path, an
//     expiration, an optional roles snapshot and a kind. USER_AUTH tokens
//     open sessions, USER_ACTIVATION tokens activate accounts. A token is
//     never accepted by a flow expecting the other kind.
//
// Errors:
//   - Failures are *goerrors.Error values. KindOf returns the caller visible
//     ErrorKind, ReasonOf the internal diagnostic. PublicError is what may be
//     shown to a client: login failures all look alike and every activation
//     failure is NotFound.
//
// Activity sinks:
//   - ActivitySink receives login, registration, activation, profile,
//     password and role events. Sinks run best-effort (errors are logged).
//
// Accounts wires every component around a UserRegistry; HTTPController
// exposes it as a JSON API and BunUserStore persists users with bun.
package account
