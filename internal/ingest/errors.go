package ingest

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a website or webpage does not exist
var ErrNotFound = errors.New("not found")

// Validation messages surfaced to callers on the "url" field
const (
	MsgCouldNotIngest    = "Could not ingest this url. Please make sure it is reachable and returns HTML."
	MsgAlreadyIngesting  = "Website is already being ingested."
	MsgBlockedByFirewall = "This website is blocking our crawler (firewall). Please allow-list it and try again."
)

// ValidationError is a user-facing rejection of a request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
