// Package clientip resolves the address of the client behind a request.
//
// Middleware stores the resolved address in the request context, where
// rate limiting keys on it and LogExtractor adds it to log records as
// client_ip. Proxy headers are consulted in the order CF-Connecting-IP,
// X-Forwarded-For (first valid entry), X-Real-IP before RemoteAddr, so the
// service must sit behind a proxy that overwrites them.
package clientip
