// Package server holds configuration for the operational HTTP surface.
//
// The server itself is assembled in the start command; this package only
// defines the settings it consumes (listen port, API key). Keeping the
// config type here lets core/config compose it without importing Fiber.
package server
