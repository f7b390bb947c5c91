package engine

import "errors"

// ErrGenerationUnavailable means the generation service could not be
// reached or returned no usable completion. The orchestrator converts it
// into the fixed apology answer rather than surfacing it raw.
var ErrGenerationUnavailable = errors.New("generation service unavailable")
