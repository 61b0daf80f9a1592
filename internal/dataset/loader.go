package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrEmptyDataset      = errors.New("dataset has no data rows")
)

// Supported upload formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const utf8BOM = "\ufeff"

// FormatOf returns the dataset format implied by a filename extension, or "" when unsupported
func FormatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	default:
		return ""
	}
}

// Load parses a dataset, choosing the parser from the filename extension
func Load(filename string, reader io.Reader) (*models.Dataset, error) {
	var (
		ds  *models.Dataset
		err error
	)

	switch FormatOf(filename) {
	case FormatCSV:
		ds, err = ParseCSV(reader)
	case FormatXLSX:
		ds, err = ParseXLSX(reader)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	ds.Name = filepath.Base(filename)
	return ds, nil
}

// LoadFile reads a dataset from disk
func LoadFile(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return Load(path, f)
}

// ParseCSV reads a comma separated dataset whose first record is the header.
// Short rows are padded and long rows truncated to the header width.
func ParseCSV(reader io.Reader) (*models.Dataset, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return fromRecords(records)
}

// ParseXLSX reads the first sheet of a workbook whose first row is the header
func ParseXLSX(reader io.Reader) (*models.Dataset, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyDataset
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	return fromRecords(rows)
}

func fromRecords(records [][]string) (*models.Dataset, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		header[i] = strings.TrimSpace(name)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := make([]string, len(header))
		copy(row, record)
		rows = append(rows, row)
	}

	if len(header) == 0 || len(rows) == 0 {
		return nil, ErrEmptyDataset
	}

	return &models.Dataset{Columns: header, Rows: rows}, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ContextCSV serializes the header and the first n rows as CSV
func ContextCSV(ds *models.Dataset, n int) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	head := ds.Head(n)
	if err := w.Write(head.Columns); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(head.Rows); err != nil {
		return "", fmt.Errorf("failed to write CSV rows: %w", err)
	}

	return buf.String(), nil
}
