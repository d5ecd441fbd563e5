// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sheet reads the input identifier table and writes the output
// summary table. Excel workbooks (.xlsx) are handled with excelize; .csv and
// .tsv files with encoding/csv.
package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/genelen/pkg/types"
)

// OutputSuffix is appended to the input base name to form the output name.
const OutputSuffix = "_output"

const outputMode = 0o644

type format int

const (
	formatUnknown format = iota
	formatXLSX
	formatCSV
	formatTSV
)

func detectFormat(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return formatXLSX
	case ".csv":
		return formatCSV
	case ".tsv":
		return formatTSV
	}
	return formatUnknown
}

// Table is a header row plus data rows, each padded to the header width.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the header cell equal to name, ignoring
// surrounding whitespace.
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i, true
		}
	}
	return -1, false
}

// ReadTable loads the first worksheet of an .xlsx file, or a whole .csv or
// .tsv file. The first row is the header. All failures wrap types.ErrInput.
func ReadTable(path string) (*Table, error) {
	var (
		records [][]string
		err     error
	)
	switch detectFormat(path) {
	case formatXLSX:
		records, err = readXLSX(path)
	case formatCSV:
		records, err = readDelimited(path, ',')
	case formatTSV:
		records, err = readDelimited(path, '\t')
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q (want .xlsx, .csv or .tsv)", types.ErrInput, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", types.ErrInput, path, err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", types.ErrInput, path)
	}

	// Excel's "CSV UTF-8" export starts the file with a byte order mark.
	records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")

	t := &Table{Header: records[0]}
	width := len(t.Header)
	for _, rec := range records[1:] {
		if len(rec) < width {
			padded := make([]string, width)
			copy(padded, rec)
			rec = padded
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ReadGeneIDs returns the "Gene ID" column of the table at path, in row
// order. Blank cells are kept as "" so row counts line up with the input.
func ReadGeneIDs(path string) ([]string, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	col, ok := t.Column(types.ColumnGeneID)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %q column", types.ErrInput, path, types.ColumnGeneID)
	}
	ids := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		ids[i] = NormalizeID(row[col])
	}
	return ids, nil
}

// NormalizeID trims a cell and rewrites integral floats ("123.0", "1.5E3")
// in plain integer form. Other values, including zero-padded integers, are
// returned unchanged.
func NormalizeID(cell string) string {
	s := strings.TrimSpace(cell)
	if s == "" {
		return s
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) >= 1<<53 {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

// OutputPath returns "<dir>/<base>_output<ext>" for the given input path.
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + OutputSuffix + ext
}

// WriteRows writes the output header and one line per row to path. The
// format follows the extension of path. The file is written to a
// temporary name and renamed into place, so a failed write leaves no
// partial output. The output is created with mode 0644.
func WriteRows(path string, rows []types.OutputRow) error {
	f := detectFormat(path)
	if f == formatUnknown {
		return fmt.Errorf("unsupported output file type %q", filepath.Ext(path))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".genelen-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	var writeErr error
	switch f {
	case formatXLSX:
		writeErr = writeXLSX(tmp, rows)
	case formatCSV:
		writeErr = writeDelimited(tmp, ',', rows)
	case formatTSV:
		writeErr = writeDelimited(tmp, '\t', rows)
	}
	if writeErr == nil {
		writeErr = tmp.Chmod(outputMode)
	}
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readDelimited(path string, comma rune) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.Comma = comma
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func writeXLSX(w io.Writer, rows []types.OutputRow) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for c, name := range types.OutputColumns {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}

	for r, row := range rows {
		vals := row.Values()
		vals[0] = geneIDValue(row.GeneID)
		for c, v := range vals {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// geneIDValue stores canonical integers as numbers so spreadsheet tools do
// not flag them as text; anything else stays a string.
func geneIDValue(id string) any {
	if id == "" {
		return nil
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != id {
		return id
	}
	return n
}

func writeDelimited(w io.Writer, comma rune, rows []types.OutputRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	if err := cw.Write(types.OutputColumns); err != nil {
		return err
	}
	for _, row := range rows {
		vals := row.Values()
		rec := make([]string, len(vals))
		for i, v := range vals {
			if v != nil {
				rec[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
