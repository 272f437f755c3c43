// Package session implements ozran's stateless session tokens.
//
// A session is an HS256-signed JWT carrying the user's id, email and username
// plus issued-at and expiry claims. Nothing is persisted server-side: a token is
// valid exactly when its signature checks out under the process secret and it
// has not expired. Logout is therefore client-directed (the cookie is cleared).
//
// Transport (cookies, HTTP) integration is out of scope here.
package session
