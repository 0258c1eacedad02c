// Package common contains shared functionality for command handlers
package common

import (
	"fmt"
	"io"

	"banka/ingest/internal/common"
	"banka/ingest/internal/container"
	"banka/ingest/internal/factory"
	"banka/ingest/internal/fileutils"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/parser"
	"banka/ingest/internal/sheet"
)

// Inputs returns the statement files named by args, or by input when no
// args are given. Directories expand to the statement files they contain.
func Inputs(args []string, input string) ([]string, error) {
	paths := args
	if len(paths) == 0 {
		if input == "" {
			return nil, fmt.Errorf("no input given: pass files as arguments or use --input")
		}
		paths = []string{input}
	}

	var files []string
	for _, p := range paths {
		resolved, err := fileutils.ResolveInputs(p)
		if err != nil {
			return nil, err
		}
		files = append(files, resolved...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no statement files found in %v", paths)
	}
	return files, nil
}

// DecodeFile reads a statement file and decodes it into identified rows.
// source forces a decoder instead of detection when not empty.
func DecodeFile(c *container.Container, path, source string) (*parser.Result, error) {
	sh, err := sheet.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var res *parser.Result
	if source == "" {
		res, err = c.GetDecoders().Decode(sh)
	} else {
		st, perr := factory.ParseSourceType(source)
		if perr != nil {
			return nil, perr
		}
		res, err = c.GetDecoders().DecodeAs(st, sh)
	}
	if err != nil {
		return nil, err
	}

	rows, err := c.GetIdentifier().Identify(res.Transactions)
	if err != nil {
		return nil, err
	}
	res.Transactions = rows
	c.GetLogger().Info("Decoded statement",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldSource, string(res.Source)),
		logging.F(logging.FieldAccountKey, res.AccountKey),
		logging.F(logging.FieldCount, len(rows)))
	return res, nil
}

// WriteResult writes rows as canonical CSV to output, or to w when output
// is empty.
func WriteResult(w io.Writer, output string, res *parser.Result, c *container.Container) error {
	delimiter := c.GetConfig().Delimiter()
	if output == "" {
		return common.WriteTransactions(w, res.Transactions, delimiter)
	}
	return common.WriteTransactionsToCSV(res.Transactions, output, delimiter, c.GetLogger())
}
