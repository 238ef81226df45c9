package store

import "fmt"

// NotFoundError is returned when a CAS lookup of a hash or tag finds
// nothing, spec.md §7.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return "store: not found: " + e.What }

func notFound(what string, h fmt.Stringer) error {
	return &NotFoundError{What: fmt.Sprintf("%s %s", what, h.String())}
}
