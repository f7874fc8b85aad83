package core

// convert.go provides cell cleanup and parse helpers for spreadsheet
// data. Imported files carry the usual artifacts: Excel formula
// prefixes (="value"), stray quotes, numeric ids rendered as "2.0",
// assorted date and boolean spellings. These helpers normalize them
// before values reach adapters or stores.

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted by ParseDate, unambiguous four-digit-year
// formats only.
var dateLayouts = []string{
	"2006-01-02", "2006/01/02", "2006.01.02",
	"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
	"Jan 2, 2006", "2 Jan 2006",
	"20060102",
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, an Excel formula prefix (="..."), and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return s
}

// ParseRowID parses a cell into a row id. Excel renders integer cells
// from some producers as "2.0", so an integral float is accepted.
func ParseRowID(s string) (RowID, error) {
	s = CleanCell(s)
	if s == "" {
		return 0, fmt.Errorf("empty row id")
	}

	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return RowID(id), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("invalid row id %q", s)
	}
	return RowID(int64(f)), nil
}

// ParseBool parses the boolean spellings spreadsheets produce:
// true/false, yes/no, t/f, y/n, 1/0.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(CleanCell(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

// ParseDate parses a cell against the accepted date layouts.
func ParseDate(s string) (time.Time, error) {
	s = CleanCell(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseFloat parses a numeric cell, tolerating currency symbols and
// thousands separators.
func ParseFloat(s string) (float64, error) {
	s = CleanCell(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}
