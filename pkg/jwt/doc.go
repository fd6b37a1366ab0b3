// Package jwt issues and verifies HS256 JSON Web Tokens for the operator API.
//
// Tokens are issued by the identity provider in front of the service; this
// package only needs the shared secret to verify them. Claims carries the
// registered fields plus the operator email. Middleware verifies the bearer
// token and stores the Claims in the request context, where handlers read
// them with ClaimsFromContext.
package jwt
