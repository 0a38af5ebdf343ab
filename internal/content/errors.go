package content

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned when an operation needs the storage root
// before Initialize has succeeded.
var ErrNotInitialized = errors.New("content: storage root not initialized")

// UnknownTagError reports a tag outside the catalog. It is a programming
// error and fatal to the run that requested it.
type UnknownTagError struct{ Tag Tag }

func (e UnknownTagError) Error() string { return fmt.Sprintf("unknown tag %d", int(e.Tag)) }

// NotFoundError reports an artifact that has not been generated in this
// process lifetime. Callers should request generation and retry.
type NotFoundError struct{ Tag Tag }

func (e NotFoundError) Error() string {
	return fmt.Sprintf("artifact %d not generated", int(e.Tag))
}

// GenerationError wraps a factory failure (I/O, encoding, resource exhaustion).
type GenerationError struct {
	Tag   Tag
	Name  string
	Cause error
}

func (e GenerationError) Error() string {
	name := e.Name
	if name == "" {
		name = e.Tag.String()
	}
	if e.Cause == nil {
		return "generate " + name + ": failed"
	}
	return "generate " + name + ": " + e.Cause.Error()
}

func (e GenerationError) Unwrap() error { return e.Cause }

// asGenerationError attaches desc to err, keeping an existing GenerationError cause.
func asGenerationError(desc Descriptor, err error) error {
	var ge GenerationError
	if errors.As(err, &ge) {
		ge.Tag, ge.Name = desc.Tag, desc.FileName
		return ge
	}
	return GenerationError{Tag: desc.Tag, Name: desc.FileName, Cause: err}
}
