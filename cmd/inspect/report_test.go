package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/icydb/icykv/internal/diag"
)

func TestSeedDemoStoreProducesReportableCorruption(t *testing.T) {
	registry, err := seedDemoStore(5, 2)
	require.NoError(t, err)

	report := diag.Walk(registry, nil, nil)
	require.Len(t, report.Stores, 1)
	require.Equal(t, 7, report.Stores[0].DataKeys)
	require.Equal(t, 2, report.Stores[0].CorruptedKeys)
	require.Equal(t, 2, report.TotalCorruptedKeys())
}

func TestSeedDemoStoreNoCorruption(t *testing.T) {
	registry, err := seedDemoStore(3, 0)
	require.NoError(t, err)

	report := diag.Walk(registry, nil, nil)
	require.Equal(t, 0, report.TotalCorruptedKeys())
}
