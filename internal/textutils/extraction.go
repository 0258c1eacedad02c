// Package textutils provides text extraction and manipulation utilities.
package textutils

import (
	"regexp"
	"strings"
)

var (
	bizumContactPattern = regexp.MustCompile(`(?i)(BENEF|ORDEN):\s*([^,]+)`)
	bizumMessagePattern = regexp.MustCompile(`(?i)BIZUM\s+(?:CARGO|ABONO).*?\s(.+?)\s*\.`)

	transferPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)desde\s+([^,]+)`),
		regexp.MustCompile(`(?i)ORDEN:\s*([^,]+)`),
		regexp.MustCompile(`(?i)BENEF:\s*([^,]+)`),
	}

	venuePattern = regexp.MustCompile(`(?i)\b(RESTAURANTE|TABERNA|BAR|CERVECERIA|CAFETERIA)\s+(.+)$`)
)

// ExtractBizumContact returns the person named after "BENEF:" or "ORDEN:".
func ExtractBizumContact(description string) string {
	m := bizumContactPattern.FindStringSubmatch(description)
	if len(m) > 2 {
		return strings.TrimSpace(m[2])
	}
	return ""
}

// ExtractBizumMessage returns the free-text message of a
// "BIZUM CARGO|ABONO ... <message>." description.
func ExtractBizumMessage(description string) string {
	m := bizumMessagePattern.FindStringSubmatch(description)
	if len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ExtractTransferCounterparty returns the counterparty of a bank transfer,
// trying "desde", "ORDEN:" and "BENEF:" fragments in that order.
func ExtractTransferCounterparty(description string) string {
	for _, re := range transferPatterns {
		m := re.FindStringSubmatch(description)
		if len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ExtractVenue returns the name following a restaurant-type keyword.
func ExtractVenue(description string) string {
	m := venuePattern.FindStringSubmatch(description)
	if len(m) > 2 {
		return strings.TrimSpace(m[2])
	}
	return ""
}
