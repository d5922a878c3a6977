// Package api exposes the asset graph over HTTP with gin.
//
// Routes:
//
//	GET  /healthz   version and controller state
//	GET  /graph     the persisted graph record
//	POST /validate  Setup-only perform, returns node errors
//	POST /build     actual perform and postprocess
//	POST /import    import a batch of files
//
// Failures use the errors.ErrorResponse envelope. Node errors of a perform
// are part of a successful response, not a failure of the request.
package api
