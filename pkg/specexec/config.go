package specexec

import "github.com/cockroachdb/errors"

// Config holds the four scheduler configuration knobs spec.md §6 names.
// Validate follows the teacher's eager-validation-at-construction idiom
// rather than failing lazily the first time a bad value is used.
type Config struct {
	Policy         SchedulerPolicy
	WindowSize     int
	IgnoreAllLocal bool
	Profiling      bool
}

// DefaultConfig returns a Config matching the original's defaults: FIRST
// policy, a window of one, no special-casing of all-local transactions,
// profiling off.
func DefaultConfig() Config {
	return Config{
		Policy:     FIRST,
		WindowSize: 1,
	}
}

// Validate rejects a Config the scheduler cannot run with.
func (c Config) Validate() error {
	if c.WindowSize < 1 {
		return errors.Newf("specexec: window size must be >= 1, got %d", c.WindowSize)
	}
	switch c.Policy {
	case FIRST, SHORTEST, LONGEST:
	default:
		return errors.Newf("specexec: unknown policy %d", c.Policy)
	}
	return nil
}
