package feed

import "fmt"

// Phase – etap eksportu, na którym wystąpił błąd
type Phase string

const (
	PhaseDirectory Phase = "directory"
	PhaseOpen      Phase = "open"
	PhaseWrite     Phase = "write"
)

// Error niesie etap, ścieżkę i przyczynę błędu eksportu.
type Error struct {
	Phase  Phase
	Path   string
	Format Format
	Err    error
}

func (e *Error) Error() string {
	switch e.Phase {
	case PhaseDirectory:
		return fmt.Sprintf("Directory %s creation error: %v", e.Path, e.Err)
	case PhaseOpen:
		return fmt.Sprintf("Opening file %s error: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("%s feed file creation error: %v", e.Format.label(), e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }
