package mutate

import "fmt"

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

type OwnerOnlyError struct {
	ViewerID string
	OwnerID  string
	FileID   string
}

func (e OwnerOnlyError) Error() string {
	// Keep this generic; CLI/TUI can wrap with more specific phrasing.
	return "owner-only"
}

// ForbiddenError is a role check failure outside file ownership (e.g. role management).
type ForbiddenError struct {
	Action   string
	ViewerID string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

// ValidationError blocks an operation locally; nothing is sent to the data service.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError is a recoverable rejection, e.g. sharing a file the recipient already has.
// Hosts offer to retry with the matching override (resend).
type ConflictError struct {
	Kind   string
	ID     string
	Detail string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.ID, e.Detail)
}

// RemoteError wraps a data service failure. No local state was changed.
type RemoteError struct {
	Op  string
	Err error
}

func (e RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e RemoteError) Unwrap() error { return e.Err }
