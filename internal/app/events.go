// Package app provides the core application service for Wails bindings.
package app

import "go.aimuz.me/voxtype/status"

// Event names for frontend communication.
const (
	EventStatusChanged = status.EventStatusChanged
	EventError         = status.EventError
	EventSessionSaved  = "session-saved"
)
