package ranking

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned (wrapped in *NotFoundError) when no item has the requested title.
var ErrNotFound = errors.New("title not found")

// NotFoundError carries the title that failed to resolve. Suggestions is left
// empty here and filled by callers that can search titles.
type NotFoundError struct {
	Title       string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrNotFound.Error(), e.Title)
}

// Is makes errors.Is(err, ErrNotFound) true for *NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
