// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Every handler file should use these helpers instead of writing raw
// http.ResponseWriter calls. JSON bodies share one envelope:
//
//	{"status": "success"|"error", "message": "...", "data": ..., "errors": {...}}
//
// Ajax detection and post-mutation redirects also live here so every
// controller answers browsers and script clients the same way.
package httputil
