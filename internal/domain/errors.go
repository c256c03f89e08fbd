package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBlobNotFound       = errors.New("blob not found")

	// ErrConflict is returned when the association list changed between read and write.
	ErrConflict = errors.New("document was modified concurrently")

	ErrAlreadyAssociated = errors.New("user is already associated with document")
)

const (
	ResourceDocument = "document"
	ResourceUser     = "user"
)

// ErrInvalidFilename is returned for upload names that do not name a plain file.
var ErrInvalidFilename = errors.New("invalid filename")
