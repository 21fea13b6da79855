// Package api provides an HTTP API server for querying and feeding the
// biographer memory engine.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string
}

// errorResponse is the JSON body returned on handler failures.
type errorResponse struct {
	Error string `json:"error"`
}
