// Package httpapi serves the room-management REST surface: room creation,
// join authorization, deletion, and the room/user listings. It translates
// request payloads into registry calls and registry sentinels into the
// error_type envelope clients understand.
//
// Identity is taken from the request payload as-is. Token verification is a
// separate concern that runs before these handlers; swap the identity
// verifier with WithIdentityVerifier to plug one in.
package httpapi
