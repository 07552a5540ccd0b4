package engine

import "errors"

// Error kinds the core distinguishes, per the error handling design:
// InvalidInput is rejected before any storage mutation; NotFound is
// reported as a bool/absent return rather than an error; StorageError
// wraps an underlying I/O or encoding failure; Corruption is logged and
// the affected row skipped rather than failing the whole operation.
var (
	ErrInvalidInput = errors.New("engine: invalid input")
	ErrStorage      = errors.New("engine: storage error")
	ErrCorruption   = errors.New("engine: corruption detected")
)
