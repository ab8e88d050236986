package resolve

import "fmt"

// NoResponseSourceError is returned when a declared response has no usable
// body source.
type NoResponseSourceError struct {
	Method string
	Path   string
}

func (e *NoResponseSourceError) Error() string {
	if e.Method == "" && e.Path == "" {
		return "response declares no example or schema"
	}
	return fmt.Sprintf("%s %s declares no example or schema", e.Method, e.Path)
}
