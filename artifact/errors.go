package artifact

import "fmt"

var (
	// ErrNotFound is returned when no artifact (or requested version) exists
	// for the given scope and filename.
	ErrNotFound = fmt.Errorf("artifact not found")
)
