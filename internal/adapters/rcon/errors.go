package rcon

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// APIError es una respuesta HTTP no-2xx del API.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rcon api %s status %d: %s", e.Endpoint, e.Status, e.Body)
}

// CommandFailedError: el API respondió 200 pero el comando falló en el server.
type CommandFailedError struct {
	Command string
	Message string
}

func (e *CommandFailedError) Error() string {
	if e.Message == "" {
		return "rcon command " + e.Command + " failed"
	}
	return fmt.Sprintf("rcon command %s failed: %s", e.Command, e.Message)
}

// IsServerError agrupa los errores "recuperables" del server de juego
// (el comando falló o el API devolvió 5xx).
func IsServerError(err error) bool {
	var cf *CommandFailedError
	if errors.As(err, &cf) {
		return true
	}
	var ae *APIError
	return errors.As(err, &ae) && ae.Status >= 500
}
