package specexec

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// SchedulerPolicy selects how the scheduler picks among candidate
// transactions within its scan window (spec.md §4.4 step 4).
type SchedulerPolicy int

const (
	// FIRST takes the first candidate that passes the conflict check.
	FIRST SchedulerPolicy = iota
	// SHORTEST takes the candidate with the smallest remaining execution
	// time estimate among the window.
	SHORTEST
	// LONGEST takes the candidate with the largest remaining execution
	// time estimate among the window.
	LONGEST
)

// String returns the lower-case policy name used in configuration.
func (p SchedulerPolicy) String() string {
	switch p {
	case FIRST:
		return "first"
	case SHORTEST:
		return "shortest"
	case LONGEST:
		return "longest"
	default:
		return "unknown"
	}
}

// ParseSchedulerPolicy parses a policy name case-insensitively (spec.md
// §6's configuration knob).
func ParseSchedulerPolicy(name string) (SchedulerPolicy, error) {
	switch strings.ToLower(name) {
	case "first":
		return FIRST, nil
	case "shortest":
		return SHORTEST, nil
	case "longest":
		return LONGEST, nil
	default:
		return 0, errors.Newf("specexec: unknown scheduler policy %q", name)
	}
}

// SpeculationType distinguishes why a transaction is being scheduled
// speculatively, mirroring the original's SpeculationType taxonomy: SP1
// and SP2 are single-partition transactions stalled on their own
// distributed phases, SP3Local/SP3Remote distinguish whether the
// stalled distributed transaction's coordinator is local to this
// partition. Used only to key the profiler (spec.md §4.4's "optional
// profilers").
type SpeculationType int

const (
	SP1 SpeculationType = iota
	SP2
	SP3Local
	SP3Remote
)

func (t SpeculationType) String() string {
	switch t {
	case SP1:
		return "SP1"
	case SP2:
		return "SP2"
	case SP3Local:
		return "SP3_LOCAL"
	case SP3Remote:
		return "SP3_REMOTE"
	default:
		return "UNKNOWN"
	}
}
