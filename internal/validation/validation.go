// Package validation checks user-supplied paths, upload names and options.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"banka/ingest/internal/parsererror"
)

// Kind is the container format of an uploaded statement.
type Kind string

const (
	KindXLSX Kind = "xlsx"
	KindCSV  Kind = "csv"
)

// IsValidPath checks that a path exists and is a regular file or directory.
func IsValidPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is empty")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is neither a file nor a directory", path)
	}
	return nil
}

// UploadKind maps a file name to its container format. Legacy .xls
// workbooks and any other extension are rejected as UnrecognizedFormat.
func UploadKind(name string) (Kind, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx":
		return KindXLSX, nil
	case ".csv":
		return KindCSV, nil
	case ".xls":
		return "", &parsererror.UnrecognizedFormatError{
			FileName: name,
			Reason:   "legacy .xls workbooks are not supported, export as .xlsx",
		}
	default:
		return "", &parsererror.UnrecognizedFormatError{
			FileName: name,
			Reason:   fmt.Sprintf("unsupported extension %q (want .xlsx or .csv)", ext),
		}
	}
}

// IsStatementFile reports whether name has an accepted upload extension.
func IsStatementFile(name string) bool {
	_, err := UploadKind(name)
	return err == nil
}

// ParseDelimiter validates a CSV delimiter option and returns it as a rune.
func ParseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}
