// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware stores the id in the request context and in the X-Request-ID
// response header. LogExtractor plugs into logger.WithContextExtractors so
// that records logged with the request context carry a request_id attribute.
package requestid
