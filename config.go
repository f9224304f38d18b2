package dynamics

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danepowell/openhaptics-sub000/ode"
)

// Config holds the tunables of a World.
type Config struct {
	// Restitution is the coefficient e of the collision impulse
	Restitution float64 `toml:"restitution"`
	// ContactThreshold is the band around a separating plane within which a
	// pair counts as touching
	ContactThreshold float64 `toml:"contact-threshold"`
	// CollisionEpsilon is the relative normal speed below which a contact is
	// resting rather than colliding
	CollisionEpsilon float64 `toml:"collision-epsilon"`
	DragLinear       float64 `toml:"drag-linear"`
	DragAngular      float64 `toml:"drag-angular"`
	// Gravity is the acceleration along y
	Gravity float64  `toml:"gravity"`
	Solver  ode.Kind `toml:"solver"`
	// MaxResolutionPasses caps the collision resolution loop of one
	// derivative evaluation
	MaxResolutionPasses int `toml:"max-resolution-passes"`
	// Workers > 1 runs the per-pair separating plane search on that many
	// goroutines
	Workers int `toml:"workers"`
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		Restitution:         0.7,
		ContactThreshold:    1e-3,
		CollisionEpsilon:    1e-3,
		DragLinear:          0.05,
		DragAngular:         0.05,
		Gravity:             -9.8,
		Solver:              ode.KindEuler,
		MaxResolutionPasses: 100,
		Workers:             1,
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Keys the file sets
// but Config does not know are reported as an error.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		var err errUnknownConfig
		for _, key := range undecoded {
			err = append(err, key.String())
		}
		return Config{}, err
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every field against its domain.
func (c Config) Validate() error {
	switch {
	case c.Restitution < 0 || c.Restitution > 1:
		return fmt.Errorf("%w: restitution %g outside [0, 1]", ErrInvalidConfig, c.Restitution)
	case c.ContactThreshold <= 0:
		return fmt.Errorf("%w: contact-threshold %g must be positive", ErrInvalidConfig, c.ContactThreshold)
	case c.CollisionEpsilon <= 0:
		return fmt.Errorf("%w: collision-epsilon %g must be positive", ErrInvalidConfig, c.CollisionEpsilon)
	case c.DragLinear < 0 || c.DragAngular < 0:
		return fmt.Errorf("%w: drag must not be negative", ErrInvalidConfig)
	case c.MaxResolutionPasses < 1:
		return fmt.Errorf("%w: max-resolution-passes %d must be at least 1", ErrInvalidConfig, c.MaxResolutionPasses)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalidConfig, c.Workers)
	}
	if _, err := ode.New(c.Solver); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// errUnknownConfig lists the keys of a config file that were not decoded.
type errUnknownConfig []string

func (e errUnknownConfig) Error() string {
	return "unknown config keys: [" + strings.Join(e, ", ") + "]"
}
