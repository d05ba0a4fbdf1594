package artifact

import (
	"errors"
	"fmt"
)

// Sentinel kinds for artifact errors.
var (
	ErrArtifactMissing = errors.New("artifact missing")
	ErrArtifactCorrupt = errors.New("artifact corrupt")
	ErrUnsupportedKind = errors.New("unsupported artifact kind")
)

// StartupError reports an artifact that could not be loaded at startup.
// The service cannot serve without it.
type StartupError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("load %s artifact %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }
