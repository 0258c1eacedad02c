// Package sheet reads uploaded statement files into raw models.Sheet tables.
package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"banka/ingest/internal/fileutils"
	"banka/ingest/internal/models"
	"banka/ingest/internal/parsererror"
	"banka/ingest/internal/validation"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read decodes data according to the extension of name. Workbooks are read
// from their first sheet with raw cell values, so dates arrive as Excel
// serials and amounts unformatted.
func Read(name string, data []byte) (*models.Sheet, error) {
	kind, err := validation.UploadKind(name)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &parsererror.UnrecognizedFormatError{FileName: name, Reason: "file is empty"}
	}
	switch kind {
	case validation.KindXLSX:
		return readXLSX(name, data)
	default:
		return readCSV(name, data)
	}
}

// ReadFile reads a statement from disk.
func ReadFile(path string) (*models.Sheet, error) {
	data, err := fileutils.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(filepath.Base(path), data)
}

func readXLSX(name string, data []byte) (*models.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &parsererror.UnrecognizedFormatError{FileName: name, Reason: fmt.Sprintf("not a readable workbook: %v", err)}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &parsererror.UnrecognizedFormatError{FileName: name, Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], name, err)
	}
	return models.NewSheet(name, rows), nil
}

func readCSV(name string, data []byte) (*models.Sheet, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, &parsererror.UnrecognizedFormatError{FileName: name, Reason: err.Error()}
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = SniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &parsererror.UnrecognizedFormatError{FileName: name, Reason: fmt.Sprintf("invalid CSV: %v", err)}
		}
		rows = append(rows, rec)
	}
	return models.NewSheet(name, rows), nil
}

// decodeText strips a UTF-8 byte order mark and falls back to Windows-1252
// when the bytes are not valid UTF-8.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("undecodable text: %w", err)
	}
	return string(out), nil
}

// SniffDelimiter picks ';' or ',' by counting both outside quotes on the
// first non-empty line. Ties go to ','.
func SniffDelimiter(text string) rune {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var semis, commas int
		quoted := false
		for _, c := range line {
			switch {
			case c == '"':
				quoted = !quoted
			case quoted:
			case c == ';':
				semis++
			case c == ',':
				commas++
			}
		}
		if semis > commas {
			return ';'
		}
		return ','
	}
	return ','
}
