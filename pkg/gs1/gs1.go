// Package gs1 decodes the human-readable form of GS1 DataMatrix barcodes
// printed on pharmaceutical packaging. The input is a concatenation of
// (AI)VALUE segments where AI is a 2-digit Application Identifier and the
// value runs until the next '(' or the end of the string.
package gs1

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Application Identifiers recognized by this decoder. Anything else is
// silently skipped so vendor-specific AIs don't break a scan.
const (
	aiGTIN   = "01"
	aiExpiry = "17"
	aiBatch  = "10"
	aiSerial = "21"
)

const gtinLength = 14

var (
	// ErrMissingGTIN is returned when no (01) segment is present
	ErrMissingGTIN = errors.New("barcode has no GTIN segment")

	// ErrMalformedExpiry is returned by ParseExpiry for values that are not
	// a valid YYMMDD date
	ErrMalformedExpiry = errors.New("malformed expiry date")
)

// ParsedCode is the structured payload of one barcode.
type ParsedCode struct {
	GTIN         string
	ExpiryDate   *time.Time
	BatchNumber  *string
	SerialNumber *string
	Raw          string
}

// Validate is a cheap pre-check used before full decoding: the code must be
// non-empty and carry a GTIN segment.
func Validate(raw string) bool {
	return raw != "" && strings.Contains(raw, "("+aiGTIN+")")
}

// ExtractGTIN returns only the GTIN without building the full structure,
// for lookup-only call sites. The second return value is false when the
// code has no GTIN segment.
func ExtractGTIN(raw string) (string, bool) {
	value, ok := segmentValue(raw, aiGTIN)
	if !ok || value == "" {
		return "", false
	}
	if len(value) > gtinLength {
		value = value[:gtinLength]
	}
	return value, true
}

// Decode parses a raw barcode into its structured payload.
//
// A missing GTIN fails the decode. A malformed expiry date does not: the
// item is still identifiable, so the code decodes with no expiry rather
// than rejecting the whole scan.
func Decode(raw string) (*ParsedCode, error) {
	gtin, ok := ExtractGTIN(raw)
	if !ok {
		return nil, ErrMissingGTIN
	}

	code := &ParsedCode{
		GTIN: gtin,
		Raw:  raw,
	}

	if value, ok := segmentValue(raw, aiExpiry); ok {
		if expiry, err := ParseExpiry(value); err == nil {
			code.ExpiryDate = &expiry
		}
	}
	if value, ok := segmentValue(raw, aiBatch); ok && value != "" {
		code.BatchNumber = &value
	}
	if value, ok := segmentValue(raw, aiSerial); ok && value != "" {
		code.SerialNumber = &value
	}

	return code, nil
}

// ParseExpiry decodes a YYMMDD expiry value. The century pivots at 50:
// YY < 50 resolves to 20YY, everything else to 19YY. Dates that do not
// round-trip (day 31 in a 30-day month, month 13, ...) are rejected.
func ParseExpiry(value string) (time.Time, error) {
	if len(value) != 6 {
		return time.Time{}, fmt.Errorf("%w: %q is not 6 digits", ErrMalformedExpiry, value)
	}
	yy, err := strconv.Atoi(value[0:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedExpiry, value)
	}
	mm, err := strconv.Atoi(value[2:4])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedExpiry, value)
	}
	dd, err := strconv.Atoi(value[4:6])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedExpiry, value)
	}

	year := 1900 + yy
	if yy < 50 {
		year = 2000 + yy
	}

	date := time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Jun 31 -> Jul 1), so a changed
	// component means the original date never existed.
	if date.Year() != year || date.Month() != time.Month(mm) || date.Day() != dd {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrMalformedExpiry, value)
	}

	return date, nil
}

// Encode renders the structured fields back into the (AI)VALUE form.
// Decode(Encode(fields)) reproduces the same fields.
func Encode(gtin string, expiry *time.Time, batch, serial *string) string {
	var b strings.Builder
	b.WriteString("(" + aiGTIN + ")" + gtin)
	if expiry != nil {
		b.WriteString("(" + aiExpiry + ")" + expiry.Format("060102"))
	}
	if batch != nil && *batch != "" {
		b.WriteString("(" + aiBatch + ")" + *batch)
	}
	if serial != nil && *serial != "" {
		b.WriteString("(" + aiSerial + ")" + *serial)
	}
	return b.String()
}

// segmentValue scans raw for the first segment tagged with the given AI and
// returns its value. Segments with anything other than a 2-digit AI before
// the closing parenthesis are ignored.
func segmentValue(raw, ai string) (string, bool) {
	rest := raw
	for {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			return "", false
		}
		rest = rest[open+1:]

		closing := strings.IndexByte(rest, ')')
		if closing < 0 {
			return "", false
		}
		tag := rest[:closing]
		rest = rest[closing+1:]

		if len(tag) != 2 || !isDigits(tag) {
			continue
		}

		end := strings.IndexByte(rest, '(')
		value := rest
		if end >= 0 {
			value = rest[:end]
		}

		if tag == ai {
			return value, true
		}
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
