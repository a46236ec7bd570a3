package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a path does not resolve to a regular file
	// under any search root.
	ErrNotFound = errors.New("file not found")
	// ErrLayoutCycle marks a layout chain that includes a file already being
	// compiled.
	ErrLayoutCycle = errors.New("infinite inclusion loop in layouts")
	// ErrLayoutDepth is returned when layout nesting exceeds Config.MaxLayoutDepth.
	ErrLayoutDepth = errors.New("layout nesting too deep")
	// ErrNotTemplate is returned by operations that require a template file.
	ErrNotTemplate = errors.New("not a template file")
)

// ScriptError is a failure raised by the Lua engine while running a chunk.
type ScriptError struct {
	File     string
	Fragment string
	Err      error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }
