package export

import (
	"errors"
	"fmt"
)

// ExportError is the only error Render, Export and Deliver return. Op names the
// failed step: "render", "serialize" or "save".
type ExportError struct {
	TeamID string
	Op     string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %s: %v", e.TeamID, e.Op, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

var (
	errEmptyTeamID    = errors.New("team id is empty")
	errUnsafeFileName = errors.New("file name must not contain a path")
)
