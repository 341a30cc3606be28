// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the session transport.
const (
	SessionClosedError = 3000 // The server ended the session, e.g. on shutdown.
)
