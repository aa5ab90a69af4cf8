package repository

import "fmt"

// NotFoundError indicates a referenced record (order, merchant, address,
// shop) does not exist.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}
