package contracts

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestNewFrame_AllMissing(t *testing.T) {
	f := NewFrame([]time.Time{day(0), day(1)}, []string{"PETR4", "VALE3"})

	assert.Equal(t, 2, f.Len())
	for _, s := range f.Symbols {
		for i := 0; i < f.Len(); i++ {
			assert.True(t, Missing(f.At(s, i)), "%s[%d] should be NaN", s, i)
		}
	}
}

func TestFrame_SetAt(t *testing.T) {
	f := NewFrame([]time.Time{day(0), day(1)}, []string{"PETR4"})
	f.Set("PETR4", 1, 31.5)

	assert.Equal(t, 31.5, f.At("PETR4", 1))
	assert.True(t, math.IsNaN(f.At("PETR4", 5)), "out of range index")
	assert.True(t, math.IsNaN(f.At("ITUB4", 0)), "unknown symbol")
}

func TestFrame_Select(t *testing.T) {
	f := NewFrame([]time.Time{day(0)}, []string{"A", "B", "C"})
	sub := f.Select([]string{"C", "A", "X"})

	assert.Equal(t, []string{"C", "A"}, sub.Symbols)
	assert.False(t, sub.HasSymbol("B"))

	// 컬럼은 공유됨
	sub.Set("A", 0, 1.0)
	assert.Equal(t, 1.0, f.At("A", 0))
}

func TestFrame_Validate(t *testing.T) {
	tests := []struct {
		name    string
		frame   *Frame
		wantErr bool
	}{
		{
			name:  "ascending dates",
			frame: NewFrame([]time.Time{day(0), day(1), day(3)}, []string{"A"}),
		},
		{
			name:    "duplicate date",
			frame:   NewFrame([]time.Time{day(0), day(0)}, []string{"A"}),
			wantErr: true,
		},
		{
			name:    "descending dates",
			frame:   NewFrame([]time.Time{day(2), day(1)}, []string{"A"}),
			wantErr: true,
		},
		{
			name: "short column",
			frame: &Frame{
				Dates:   []time.Time{day(0), day(1)},
				Symbols: []string{"A"},
				Values:  map[string][]float64{"A": {1}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMisaligned))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDataQualitySnapshot_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		snapshot DataQualitySnapshot
		want     bool
	}{
		{
			name:     "valid snapshot",
			snapshot: DataQualitySnapshot{TradingDays: 250, TotalAssets: 10, ValidAssets: 8},
			want:     true,
		},
		{
			name:     "no trading days",
			snapshot: DataQualitySnapshot{TradingDays: 0, TotalAssets: 10},
			want:     false,
		},
		{
			name:     "no assets",
			snapshot: DataQualitySnapshot{TradingDays: 250, TotalAssets: 0},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.snapshot.IsValid())
		})
	}
}

func TestDataQualitySnapshot_CoverageRate(t *testing.T) {
	snapshot := DataQualitySnapshot{
		Coverage: map[string]float64{"A": 1.0, "B": 0.5},
	}
	assert.InDelta(t, 0.75, snapshot.CoverageRate(), 1e-12)

	empty := DataQualitySnapshot{}
	assert.Equal(t, 0.0, empty.CoverageRate())
}

func TestMissingInputError(t *testing.T) {
	cause := errors.New("no such file")
	err := &MissingInputError{Path: "prices.csv", Err: cause}

	assert.True(t, errors.Is(err, ErrMissingInput))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "prices.csv")
}
