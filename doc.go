// Package accounts implements the user account side of the storefront:
// registration with email activation, session based login, the profile
// page, and the shipping address book.
//
// Registration and activation:
//   - Accounts start inactive. Registration stores the bcrypt password
//     hash and emails a signed, time limited activation link. Visiting
//     the link flips the account active; activation is idempotent and an
//     expired link reports "activation link expired".
//
// Sessions:
//   - Login verifies credentials through an IdentityProvider and creates
//     a server side session in a SessionStore, keyed by an opaque token
//     held in a cookie. Redis backs production sessions, an in memory
//     store backs tests and single node setups.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther and the
//     command handlers to describe registration, activation, and login
//     events. Sinks run best-effort so a slow consumer never blocks a
//     login.
package accounts
