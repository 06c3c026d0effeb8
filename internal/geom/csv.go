package geom

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"kmlgen/internal/apperr"
)

// ReadTable returns the rows of a .csv file or of the first sheet of an .xlsx
// workbook, header row included.
func ReadTable(path string) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadXLSX(f)
	default:
		return nil, fmt.Errorf("%w: unsupported spreadsheet %q", apperr.ErrParse, ext)
	}
}

// ReadCSV reads all records. Rows may have differing lengths. The delimiter is
// taken from the header line: ';', tab or ','.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %v", apperr.ErrParse, err)
	}
	header, _, _ := bytes.Cut(data, []byte("\n"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(string(header))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %v", apperr.ErrParse, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: empty csv", apperr.ErrParse)
	}
	return recs, nil
}

// sniffDelimiter picks the most frequent of ';', '\t' and ',' outside quotes.
// Ties go to ';' so decimal commas in a semicolon file do not win.
func sniffDelimiter(line string) rune {
	counts := map[rune]int{}
	quoted := false
	for _, c := range line {
		switch {
		case c == '"':
			quoted = !quoted
		case !quoted && (c == ';' || c == '\t' || c == ','):
			counts[c]++
		}
	}
	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > 0 && counts[c] >= counts[best] {
			best = c
		}
	}
	return best
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %v", apperr.ErrParse, err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: xlsx: no sheets", apperr.ErrParse)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %v", apperr.ErrParse, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: xlsx: empty sheet", apperr.ErrParse)
	}
	return rows, nil
}
