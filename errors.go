package dynamics

import "errors"

var (
	// ErrNotInitialized is returned when the world is stepped or queried
	// before InitSimulation, or after the body set changed without a new
	// InitSimulation.
	ErrNotInitialized = errors.New("dynamics: simulation not initialized")
	// ErrUnknownBody is returned for an identifier the world does not hold.
	ErrUnknownBody = errors.New("dynamics: unknown body")
	// ErrInvalidShape is returned for boxes without volume and walls whose
	// corners do not span a plane.
	ErrInvalidShape = errors.New("dynamics: invalid shape")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("dynamics: invalid config")
)
