// Package catalog holds the immutable, catalog-owned entities the planner
// and scheduler reason about: statements, their compiled plan fragments,
// and the stored procedures that group statements into one batch. These
// types are produced by the SQL compiler/optimizer, which is an external
// collaborator (see spec.md §1) — this package only defines the shared,
// read-only handle shape that BatchPlanner and PlanGraphBuilder consume.
package catalog

import "sort"

// FragmentRole distinguishes a plan fragment that produces input for
// another fragment (a "map"/leaf fragment) from one that consumes other
// fragments' output (a "reduce"/root fragment). It exists only to drive
// the stable producer-before-consumer ordering SortFragments implements;
// it is not itself part of the wire protocol.
type FragmentRole int

const (
	// RoleProducer fragments have no unmet input dependency; they read
	// base data and are always ordered before RoleConsumer fragments of
	// the same statement.
	RoleProducer FragmentRole = iota
	// RoleConsumer fragments combine the output of one or more
	// RoleProducer fragments (e.g. a final aggregation).
	RoleConsumer
)

// PlanFragment is a compiled, single-partition-runnable piece of a
// Statement's execution plan. PlanFragment values are immutable and
// shared; the planner never copies or mutates one.
type PlanFragment struct {
	// ID is the fragment's catalog identifier. Two PlanFragments with the
	// same ID are the same fragment.
	ID   int64
	Role FragmentRole
}

// Statement is one prepared SQL statement inside a stored procedure's
// batch. It is immutable and catalog-owned: BatchPlanner never mutates a
// Statement, only the per-invocation ParameterSet bound to it.
type Statement struct {
	// Name identifies the statement for diagnostics (procedure-qualified
	// full name in the teacher's catalog).
	Name string
	// ReadOnly is true if every fragment of this statement only reads.
	ReadOnly bool
	// HasSinglePartitionPlan is true if the catalog compiled a
	// single-partition plan for this statement in addition to its
	// multi-partition plan. BatchPlanner tries the single-partition
	// fragments first whenever this is true.
	HasSinglePartitionPlan bool
	// SinglePartitionFragments is the fragment list used when the planner
	// believes (or is trying) single-partition execution.
	SinglePartitionFragments []PlanFragment
	// MultiPartitionFragments is the fragment list used once the planner
	// has established (or been told) that this statement cannot run on a
	// single partition.
	MultiPartitionFragments []PlanFragment
}

// Procedure is a stored procedure: an ordered batch of Statements plus the
// catalog flag distinguishing system procedures (which get tagged
// SYS_PROC_PER_PARTITION fragment-task messages) from user procedures.
type Procedure struct {
	Name            string
	SystemProcedure bool
	Statements      []Statement
}

// SortFragments returns frags in the stable execution order the Batch
// Planner uses to build the synthetic input/output dependency chain for
// one statement: every RoleProducer fragment before every RoleConsumer
// fragment, ties broken by fragment id. The input slice is not mutated.
func SortFragments(frags []PlanFragment) []PlanFragment {
	sorted := make([]PlanFragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Role != sorted[j].Role {
			return sorted[i].Role < sorted[j].Role
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}
