// Package dateutils parses the date representations found in Spanish bank
// exports: day-first text dates, ISO timestamps and Excel serial numbers.
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutSpanish  = "02/01/2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
	DateLayoutSpanishT = "02/01/2006 15:04:05"
)

// dateOnlyFormats are tried in order; day-first always wins over month-first.
var dateOnlyFormats = []string{
	DateLayoutSpanish,
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	DateLayoutISO,
	"2006/01/02",
	"02/01/06",
}

var dateTimeFormats = []string{
	DateLayoutFull,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05.000000",
	DateLayoutSpanishT,
	"02/01/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
}

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	serialNumber = regexp.MustCompile(`^\d{4,6}(\.\d+)?$`)
)

// CleanDateString removes unwanted characters and normalizes a date string
func CleanDateString(dateStr string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseDate parses a statement date. hasTime reports whether the input
// carried a time of day; date-only values are returned at midnight UTC.
func ParseDate(dateStr string) (t time.Time, hasTime bool, err error) {
	s := CleanDateString(dateStr)
	if s == "" || strings.EqualFold(s, "nan") {
		return time.Time{}, false, fmt.Errorf("empty date")
	}

	if serialNumber.MatchString(s) {
		return ParseExcelSerial(s)
	}
	for _, layout := range dateTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
				return t.UTC(), false, nil
			}
			return t.UTC(), true, nil
		}
	}
	for _, layout := range dateOnlyFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseExcelSerial converts an Excel 1900-system serial such as "45355" or
// "45355.5" into a time.
func ParseExcelSerial(s string) (time.Time, bool, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid excel serial %q: %w", s, err)
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid excel serial %q: %w", s, err)
	}
	t = t.UTC().Round(time.Second)
	return t, !IsMidnight(t), nil
}

// StartOfDay returns midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsMidnight reports whether t has no time-of-day component.
func IsMidnight(t time.Time) bool {
	return t.Equal(StartOfDay(t))
}
