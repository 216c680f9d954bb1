package s0_data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/zreversion/internal/contracts"
)

// LoadReport summarizes what a table load recovered from
type LoadReport struct {
	Path           string `json:"path"`
	Rows           int    `json:"rows"`            // 파싱된 행 수
	DroppedRows    int    `json:"dropped_rows"`    // 날짜 파싱 실패로 버린 행
	MalformedCells int    `json:"malformed_cells"` // 숫자 파싱 실패 → NaN
}

// CSVReader reads date-indexed tables from delimited text
// ⭐ SSOT: 입력 테이블 파싱은 여기서만
type CSVReader struct {
	dateColumn  string
	dateFormats []string
}

// NewCSVReader creates a reader. dateColumn is matched case-insensitively;
// when no header matches, the first column is the date index.
func NewCSVReader(dateColumn string, dateFormats []string) *CSVReader {
	if len(dateFormats) == 0 {
		dateFormats = []string{contracts.DateLayout, "2006-01-02 15:04:05", time.RFC3339}
	}
	return &CSVReader{
		dateColumn:  dateColumn,
		dateFormats: dateFormats,
	}
}

type row struct {
	date   time.Time
	values []float64
}

// LoadFrame reads a price or z-score table: date column + one column per symbol.
// Unparseable numeric cells become NaN, rows with an unparseable date are dropped.
func (r *CSVReader) LoadFrame(path string) (*contracts.Frame, *LoadReport, error) {
	header, records, err := r.readAll(path)
	if err != nil {
		return nil, nil, err
	}

	dateIdx := r.dateIndex(header)
	symbols := make([]string, 0, len(header)-1)
	colIdx := make([]int, 0, len(header)-1)
	for i, name := range header {
		if i == dateIdx {
			continue
		}
		symbols = append(symbols, strings.TrimSpace(name))
		colIdx = append(colIdx, i)
	}

	report := &LoadReport{Path: path}
	rows := make([]row, 0, len(records))
	for _, rec := range records {
		date, err := r.parseDate(field(rec, dateIdx))
		if err != nil {
			report.DroppedRows++
			continue
		}
		values := make([]float64, len(colIdx))
		for j, ci := range colIdx {
			v, ok := parseNumber(field(rec, ci))
			if !ok {
				report.MalformedCells++
			}
			values[j] = v
		}
		rows = append(rows, row{date: date, values: values})
	}

	if err := sortRows(rows); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	dates := make([]time.Time, len(rows))
	for i, rw := range rows {
		dates[i] = rw.date
	}
	frame := contracts.NewFrame(dates, symbols)
	for i, rw := range rows {
		for j, sym := range symbols {
			frame.Set(sym, i, rw.values[j])
		}
	}
	report.Rows = len(rows)

	if err := frame.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	return frame, report, nil
}

// LoadBenchmark reads the benchmark index series from its own file.
// column selects the price column; when absent and the file has exactly one
// value column, that column is used. Rows whose value is not numeric
// (e.g. a ticker label row under the header) are dropped before parsing.
func (r *CSVReader) LoadBenchmark(path, column, symbol string) (*contracts.Benchmark, *LoadReport, error) {
	header, records, err := r.readAll(path)
	if err != nil {
		return nil, nil, err
	}

	dateIdx := r.dateIndex(header)
	valueIdx := columnIndex(header, column)
	if valueIdx < 0 || valueIdx == dateIdx {
		if len(header) != 2 {
			return nil, nil, &contracts.MissingInputError{
				Path: path,
				Err:  fmt.Errorf("benchmark column %q not found", column),
			}
		}
		valueIdx = 1 - dateIdx
	}

	report := &LoadReport{Path: path}
	rows := make([]row, 0, len(records))
	for _, rec := range records {
		date, err := r.parseDate(field(rec, dateIdx))
		if err != nil {
			report.DroppedRows++
			continue
		}
		v, ok := parseNumber(field(rec, valueIdx))
		if !ok || contracts.Missing(v) {
			// 센티널/결측 행은 벤치마크에서 제외
			report.DroppedRows++
			if !ok {
				report.MalformedCells++
			}
			continue
		}
		rows = append(rows, row{date: date, values: []float64{v}})
	}

	if err := sortRows(rows); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, &contracts.MissingInputError{Path: path, Err: contracts.ErrEmptyResult}
	}

	bench := &contracts.Benchmark{
		Symbol: symbol,
		Dates:  make([]time.Time, len(rows)),
		Values: make([]float64, len(rows)),
	}
	for i, rw := range rows {
		bench.Dates[i] = rw.date
		bench.Values[i] = rw.values[0]
	}
	report.Rows = len(rows)

	return bench, report, nil
}

// LoadTradeSignals reads a trade-signal log (Date,Ticker,ZScore,Signal,Price)
func (r *CSVReader) LoadTradeSignals(path string) ([]contracts.TradeSignal, *LoadReport, error) {
	header, records, err := r.readAll(path)
	if err != nil {
		return nil, nil, err
	}

	idx := map[string]int{}
	for _, name := range []string{"date", "ticker", "zscore", "signal", "price"} {
		i := columnIndex(header, name)
		if i < 0 {
			return nil, nil, &contracts.MissingInputError{
				Path: path,
				Err:  fmt.Errorf("trade signal column %q not found", name),
			}
		}
		idx[name] = i
	}

	report := &LoadReport{Path: path}
	out := make([]contracts.TradeSignal, 0, len(records))
	for _, rec := range records {
		date, err := r.parseDate(field(rec, idx["date"]))
		if err != nil {
			report.DroppedRows++
			continue
		}
		sig, err := contracts.ParseSignal(field(rec, idx["signal"]))
		if err != nil {
			report.DroppedRows++
			continue
		}
		z, zok := parseNumber(field(rec, idx["zscore"]))
		p, pok := parseNumber(field(rec, idx["price"]))
		if !zok {
			report.MalformedCells++
		}
		if !pok {
			report.MalformedCells++
		}
		out = append(out, contracts.TradeSignal{
			Date:   date,
			Symbol: strings.TrimSpace(field(rec, idx["ticker"])),
			ZScore: z,
			Signal: sig,
			Price:  p,
		})
	}
	report.Rows = len(out)

	return out, report, nil
}

// readAll opens path and returns the header and all records.
// A missing file is reported as MissingInputError.
func (r *CSVReader) readAll(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &contracts.MissingInputError{Path: path, Err: err}
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	csvReader := csv.NewReader(file)
	csvReader.FieldsPerRecord = -1 // 행마다 필드 수가 달라도 허용 (누락 셀 = NaN)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, nil, &contracts.MissingInputError{Path: path, Err: errors.New("empty file")}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header %s: %w", path, err)
	}
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("%s: %w: need a date column and at least one value column", path, contracts.ErrMisaligned)
	}

	var records [][]string
	for {
		rec, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %s: %w", path, err)
		}
		records = append(records, rec)
	}

	return header, records, nil
}

func (r *CSVReader) dateIndex(header []string) int {
	if i := columnIndex(header, r.dateColumn); i >= 0 {
		return i
	}
	return 0
}

// parseDate handles multiple date formats
func (r *CSVReader) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, format := range r.dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date: %q", s)
}

// parseNumber returns (NaN, true) for blank/NA tokens and (NaN, false) for garbage
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na", "n/a", "null", "none":
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// sortRows orders rows by date and rejects duplicate dates
func sortRows(rows []row) error {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})
	for i := 1; i < len(rows); i++ {
		if rows[i].date.Equal(rows[i-1].date) {
			return fmt.Errorf("%w: duplicate date %s", contracts.ErrMisaligned, rows[i].date.Format(contracts.DateLayout))
		}
	}
	return nil
}

func columnIndex(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
