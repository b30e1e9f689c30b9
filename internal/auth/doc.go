// Package auth verifies the tokens presented by terminal clients.
//
// JWTVerifier checks HMAC-signed tokens in process. RemoteVerifier defers
// to the auth service's verify endpoint. Chain runs both so a token must be
// well formed locally and still accepted by the service.
package auth
