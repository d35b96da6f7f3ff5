// Package token creates and verifies the signed access and refresh tokens
// issued by the recipe platform.
//
// Tokens are JWTs signed with an HMAC secret shared with the auth service.
// The codec distinguishes two failure categories: an expired token (valid
// signature, past exp) and an invalid token (bad signature, malformed
// input, or wrong token type). Callers react differently to the two, so
// the distinction is part of the contract.
package token
