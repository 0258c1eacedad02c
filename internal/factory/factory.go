// Package factory detects the source of a statement sheet and dispatches it
// to the matching decoder.
package factory

import (
	"fmt"
	"sort"
	"strings"

	"banka/ingest/internal/ibercajaparser"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"
	"banka/ingest/internal/parser"
	"banka/ingest/internal/parsererror"
	"banka/ingest/internal/pluxeeparser"
	"banka/ingest/internal/revolutparser"
)

// detectors are tried in order. Structural matches come before free-text
// scans so a Revolut export mentioning the Pluxee product is still Revolut.
var detectors = []struct {
	source models.SourceType
	match  func(*models.Sheet) bool
}{
	{models.SourceIbercaja, ibercajaparser.IsIbercaja},
	{models.SourceRevolut, revolutparser.IsRevolut},
	{models.SourcePluxee, pluxeeparser.IsPluxee},
}

// Detect returns the source a sheet belongs to, or an UnrecognizedFormatError.
func Detect(sheet *models.Sheet) (models.SourceType, error) {
	if sheet.Len() == 0 {
		return "", &parsererror.UnrecognizedFormatError{FileName: sheetName(sheet), Reason: "empty sheet"}
	}
	for _, d := range detectors {
		if d.match(sheet) {
			return d.source, nil
		}
	}
	return "", &parsererror.UnrecognizedFormatError{FileName: sheetName(sheet), Reason: "no known statement layout"}
}

func sheetName(sheet *models.Sheet) string {
	if sheet == nil {
		return ""
	}
	return sheet.Name
}

// ParseSourceType maps a user-supplied source name to a SourceType.
func ParseSourceType(name string) (models.SourceType, error) {
	for _, d := range detectors {
		if strings.EqualFold(strings.TrimSpace(name), string(d.source)) {
			return d.source, nil
		}
	}
	return "", fmt.Errorf("unknown source type: %s", name)
}

// Registry holds one decoder per source.
type Registry struct {
	decoders map[models.SourceType]parser.Decoder
	logger   logging.Logger
}

// NewRegistry creates a registry with the given decoders. A later decoder for
// the same source replaces an earlier one.
func NewRegistry(logger logging.Logger, decoders ...parser.Decoder) *Registry {
	if logger == nil {
		logger = logging.Nop()
	}
	r := &Registry{decoders: make(map[models.SourceType]parser.Decoder), logger: logger}
	for _, d := range decoders {
		r.Register(d)
	}
	return r
}

// Register adds or replaces the decoder for d.Source().
func (r *Registry) Register(d parser.Decoder) {
	r.decoders[d.Source()] = d
}

// Sources lists the registered sources in name order.
func (r *Registry) Sources() []models.SourceType {
	out := make([]models.SourceType, 0, len(r.decoders))
	for s := range r.decoders {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Get returns the decoder registered for source.
func (r *Registry) Get(source models.SourceType) (parser.Decoder, error) {
	d, ok := r.decoders[source]
	if !ok {
		return nil, fmt.Errorf("no decoder registered for source %s", source)
	}
	return d, nil
}

// Decode detects the source of sheet and runs its decoder.
func (r *Registry) Decode(sheet *models.Sheet) (*parser.Result, error) {
	source, err := Detect(sheet)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Detected statement source",
		logging.F(logging.FieldFile, sheet.Name),
		logging.F(logging.FieldSource, source))
	return r.DecodeAs(source, sheet)
}

// DecodeAs runs the decoder for source without detection.
func (r *Registry) DecodeAs(source models.SourceType, sheet *models.Sheet) (*parser.Result, error) {
	d, err := r.Get(source)
	if err != nil {
		return nil, err
	}
	return d.Decode(sheet)
}
