// Package main provides the entry point for the banka-ingest CLI application.
package main

import (
	"fmt"
	"os"

	"banka/ingest/cmd/categorize"
	"banka/ingest/cmd/convert"
	"banka/ingest/cmd/detect"
	"banka/ingest/cmd/ingest"
	"banka/ingest/cmd/root"
	"banka/ingest/cmd/transfers"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(detect.Cmd)
	root.Cmd.AddCommand(convert.Cmd)
	root.Cmd.AddCommand(ingest.Cmd)
	root.Cmd.AddCommand(transfers.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
