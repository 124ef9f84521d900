package live

import "errors"

var (
	// ErrMissingAPIKey is returned by Connect when no API key is configured.
	ErrMissingAPIKey = errors.New("missing Gemini API key")

	// ErrSessionClosed is returned when sending on a session that has been torn down.
	ErrSessionClosed = errors.New("live session closed")

	// ErrNotConnected is returned by service operations that need an open session.
	ErrNotConnected = errors.New("no live session connected")

	// ErrConnectSuperseded is returned by a Connect overtaken by a later Connect or Disconnect.
	ErrConnectSuperseded = errors.New("connect superseded")
)
