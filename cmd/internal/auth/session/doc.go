// Package session implements warden's cookie session model.
//
// A session is a Ticket carrying the user key, a snapshot of the user's
// security stamp and the time it was last checked against the store. The
// Authenticator trusts a ticket for RevalidationInterval and then reloads the
// user record; a changed stamp revokes the ticket and clears the transport.
//
// Tickets are sealed by a Codec (PASETO v4.public by default, or HS256 JWT)
// before they leave the process. Cookie handling lives in the HTTP layer.
package session
