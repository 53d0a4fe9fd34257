package loader

import "fmt"

// LoadError is returned when a line of a stream cannot be decoded.
type LoadError struct {
	Filename string
	Line     int
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Filename, e.Line, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) GetFilename() string {
	return e.Filename
}

func (e *LoadError) GetLine() int {
	return e.Line
}
