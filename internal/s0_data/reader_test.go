package s0_data

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zreversion/internal/contracts"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newReader() *CSVReader {
	return NewCSVReader("Date", nil)
}

func TestLoadFrame(t *testing.T) {
	path := writeFile(t, "prices.csv", "Date,PETR4,VALE3\n"+
		"2024-01-03,31.0,70.5\n"+
		"2024-01-02,30.5,\n"+ // 정렬되지 않은 입력
		"2024-01-04,abc,71.0\n")

	frame, report, err := newReader().LoadFrame(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"PETR4", "VALE3"}, frame.Symbols)
	require.Equal(t, 3, frame.Len())
	assert.Equal(t, "2024-01-02", frame.Dates[0].Format(contracts.DateLayout))
	assert.Equal(t, "2024-01-04", frame.Dates[2].Format(contracts.DateLayout))

	assert.Equal(t, 30.5, frame.At("PETR4", 0))
	assert.True(t, math.IsNaN(frame.At("VALE3", 0)), "blank cell is missing")
	assert.True(t, math.IsNaN(frame.At("PETR4", 2)), "garbage cell is coerced to NaN")

	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 1, report.MalformedCells)
	assert.Equal(t, 0, report.DroppedRows)
}

func TestLoadFrame_DropsUnparseableDates(t *testing.T) {
	path := writeFile(t, "prices.csv", "Price,PETR4\n"+
		"Ticker,PETR4.SA\n"+
		"2024-01-02,30.5\n")

	frame, report, err := newReader().LoadFrame(path)
	require.NoError(t, err)

	assert.Equal(t, 1, frame.Len())
	assert.Equal(t, 1, report.DroppedRows)
}

func TestLoadFrame_DuplicateDate(t *testing.T) {
	path := writeFile(t, "prices.csv", "Date,PETR4\n2024-01-02,1\n2024-01-02,2\n")

	_, _, err := newReader().LoadFrame(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMisaligned))
}

func TestLoadFrame_MissingFile(t *testing.T) {
	_, _, err := newReader().LoadFrame(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMissingInput))
}

func TestLoadBenchmark_DropsSentinelRow(t *testing.T) {
	path := writeFile(t, "ibov.csv", "Date,Close\n"+
		"2024-01-01,^BVSP\n"+
		"2024-01-02,132000\n"+
		"2024-01-03,133000.5\n")

	bench, report, err := newReader().LoadBenchmark(path, "Close", "IBOV")
	require.NoError(t, err)

	assert.Equal(t, "IBOV", bench.Symbol)
	assert.Equal(t, []float64{132000, 133000.5}, bench.Values)
	assert.Equal(t, 1, report.DroppedRows)
}

func TestLoadBenchmark_SingleValueColumnFallback(t *testing.T) {
	path := writeFile(t, "ibov.csv", "Date,^BVSP\n2024-01-02,100\n")

	bench, _, err := newReader().LoadBenchmark(path, "Close", "IBOV")
	require.NoError(t, err)
	assert.Equal(t, []float64{100}, bench.Values)
}

func TestLoadBenchmark_ColumnMissing(t *testing.T) {
	path := writeFile(t, "ibov.csv", "Date,Open,High\n2024-01-02,1,2\n")

	_, _, err := newReader().LoadBenchmark(path, "Close", "IBOV")
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMissingInput))
}

func TestLoadBenchmark_AllNonNumeric(t *testing.T) {
	path := writeFile(t, "ibov.csv", "Date,Close\n2024-01-02,n/a\n")

	_, _, err := newReader().LoadBenchmark(path, "Close", "IBOV")
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrEmptyResult))
}

func TestLoadTradeSignals(t *testing.T) {
	path := writeFile(t, "trade_signals.csv", "Date,Ticker,ZScore,Signal,Price\n"+
		"2024-03-01,PETR4,-2.31,Buy,29.1\n"+
		"2024-03-01,VALE3,2.05,Sell,70\n"+
		"2024-03-02,VALE3,0.1,Wait,70\n")

	signals, report, err := newReader().LoadTradeSignals(path)
	require.NoError(t, err)

	require.Len(t, signals, 2)
	assert.Equal(t, contracts.SignalBuy, signals[0].Signal)
	assert.Equal(t, -2.31, signals[0].ZScore)
	assert.Equal(t, "VALE3", signals[1].Symbol)
	assert.Equal(t, 1, report.DroppedRows)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantNaN bool
		wantOK  bool
	}{
		{"1.5", 1.5, false, true},
		{" 42 ", 42, false, true},
		{"", 0, true, true},
		{"NaN", 0, true, true},
		{"null", 0, true, true},
		{"^BVSP", 0, true, false},
		{"Inf", 0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantNaN {
				assert.True(t, math.IsNaN(got))
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
