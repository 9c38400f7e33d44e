// Package clientip resolves the originating client address of an HTTP request
// served behind reverse proxies. Toggle evaluation uses it to fill the remote
// address of request contexts for the remoteAddress strategy.
//
// GetIP consults CF-Connecting-IP, X-Forwarded-For and X-Real-IP in that order
// and falls back to the TCP peer address. NewResolver builds a resolver with a
// different set of trusted headers:
//
//	res := clientip.NewResolver("X-Real-IP")
//	ip := res.Resolve(r)
//
// Invalid values are skipped; an empty string means no valid address was found.
package clientip
