package catalog_test

import (
	"testing"

	"github.com/hstore-labs/voltcore/pkg/catalog"
	"github.com/stretchr/testify/require"
)

func TestSortFragments(t *testing.T) {
	frags := []catalog.PlanFragment{
		{ID: 30, Role: catalog.RoleConsumer},
		{ID: 10, Role: catalog.RoleProducer},
		{ID: 20, Role: catalog.RoleProducer},
		{ID: 25, Role: catalog.RoleConsumer},
	}

	sorted := catalog.SortFragments(frags)
	require.Equal(t, []catalog.PlanFragment{
		{ID: 10, Role: catalog.RoleProducer},
		{ID: 20, Role: catalog.RoleProducer},
		{ID: 25, Role: catalog.RoleConsumer},
		{ID: 30, Role: catalog.RoleConsumer},
	}, sorted)

	// The input slice must be untouched.
	require.Equal(t, catalog.PlanFragment{ID: 30, Role: catalog.RoleConsumer}, frags[0])
}

func TestSortFragmentsEmpty(t *testing.T) {
	require.Empty(t, catalog.SortFragments(nil))
}
