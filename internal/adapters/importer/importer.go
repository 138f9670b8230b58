// Package importer reads and writes campaign-day history sheets in XLSX and
// CSV form.
package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/okian/admetrics/internal/domain/model"
)

// Columns is the canonical header. id is optional on input.
var Columns = []string{"date", "channel", "spend", "impressions", "clicks", "conversions", "revenue", "id"}

var required = Columns[:7]

const dateLayout = "2006-01-02"

// idNamespace scopes the ids derived for rows without one.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("admetrics/campaign-day"))

// Format returns "xlsx" or "csv" from the file extension.
func Format(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return "xlsx", nil
	case ".csv":
		return "csv", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// ReadFile loads campaign days from an .xlsx (first sheet) or .csv file.
func ReadFile(path string) ([]model.CampaignDay, error) {
	format, err := Format(path)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	switch format {
	case "xlsx":
		rows, err = readXLSX(path)
	default:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	return parseRows(rows)
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = file.Close() }()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func parseRows(rows [][]string) ([]model.CampaignDay, error) {
	if len(rows) < 2 {
		return nil, ErrEmptyFile
	}
	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	out := make([]model.CampaignDay, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		d, err := parseRow(row, idx)
		if err != nil {
			// n+2: one for the header, one for 1-based line numbers
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadRow, n+2, err)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, ErrEmptyFile
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseRow(row []string, idx map[string]int) (model.CampaignDay, error) {
	var d model.CampaignDay
	var err error

	d.Channel = cell(row, idx, "channel")
	if d.Channel == "" {
		return d, fmt.Errorf("channel is empty")
	}
	if d.Date, err = parseDate(cell(row, idx, "date")); err != nil {
		return d, err
	}
	if d.Spend, err = parseFloat(cell(row, idx, "spend"), "spend"); err != nil {
		return d, err
	}
	if d.Revenue, err = parseFloat(cell(row, idx, "revenue"), "revenue"); err != nil {
		return d, err
	}
	if d.Impressions, err = parseInt(cell(row, idx, "impressions"), "impressions"); err != nil {
		return d, err
	}
	if d.Clicks, err = parseInt(cell(row, idx, "clicks"), "clicks"); err != nil {
		return d, err
	}
	if d.Conversions, err = parseInt(cell(row, idx, "conversions"), "conversions"); err != nil {
		return d, err
	}

	d.ID = cell(row, idx, "id")
	if d.ID == "" {
		d.ID = DeriveID(d.Channel, d.Date)
	}
	return d, nil
}

// DeriveID returns a stable id for a channel's day so re-imports deduplicate.
func DeriveID(channel string, date time.Time) string {
	return uuid.NewSHA1(idNamespace, []byte(channel+"|"+date.Format(dateLayout))).String()
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{dateLayout, time.RFC3339, "01/02/2006", "1/2/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD", s)
}

func parseFloat(s, col string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", col, s)
	}
	return v, nil
}

func parseInt(s, col string) (int64, error) {
	v, err := parseFloat(s, col)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}
