package s1_universe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zreversion/internal/contracts"
)

func snapshotWith(coverage map[string]float64) *contracts.DataQualitySnapshot {
	return &contracts.DataQualitySnapshot{
		TradingDays:  100,
		TotalAssets:  len(coverage),
		Coverage:     coverage,
		QualityScore: 0.9,
	}
}

func TestBuilder_Build(t *testing.T) {
	snapshot := snapshotWith(map[string]float64{
		"VALE3": 1.0,
		"PETR4": 1.0,
		"ITUB4": 0.98,
		"MGLU3": 0.0,
	})
	symbols := []string{"VALE3", "PETR4", "ITUB4", "MGLU3"}

	tests := []struct {
		name         string
		config       Config
		wantSymbols  []string
		wantExcluded []string
	}{
		{
			name:         "drop incomplete",
			config:       Config{DropIncomplete: true},
			wantSymbols:  []string{"VALE3", "PETR4"},
			wantExcluded: []string{"ITUB4", "MGLU3"},
		},
		{
			name:         "keep gaps above min coverage",
			config:       Config{MinCoverage: 0.95},
			wantSymbols:  []string{"VALE3", "PETR4", "ITUB4"},
			wantExcluded: []string{"MGLU3"},
		},
		{
			name:         "explicit exclude",
			config:       Config{DropIncomplete: true, Exclude: []string{"PETR4"}},
			wantSymbols:  []string{"VALE3"},
			wantExcluded: []string{"PETR4", "ITUB4", "MGLU3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			universe, err := NewBuilder(tt.config).Build(snapshot, symbols)
			require.NoError(t, err)

			// 입력 컬럼 순서 유지
			assert.Equal(t, tt.wantSymbols, universe.Symbols)
			assert.Equal(t, len(symbols), universe.TotalCount)
			for _, s := range tt.wantExcluded {
				excluded, reason := universe.IsExcluded(s)
				assert.True(t, excluded, s)
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestBuilder_AllExcluded(t *testing.T) {
	snapshot := snapshotWith(map[string]float64{"ITUB4": 0.5})

	_, err := NewBuilder(Config{DropIncomplete: true}).Build(snapshot, []string{"ITUB4"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrEmptyResult))
}

func TestBuilder_InvalidSnapshot(t *testing.T) {
	_, err := NewBuilder(Config{}).Build(&contracts.DataQualitySnapshot{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrEmptyResult))
}
