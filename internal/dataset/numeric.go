package dataset

import (
	"strconv"
	"strings"
)

// sniffDelimiter picks tab for .tsv files and comma otherwise.
func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// parseNumeric reads a locale-formatted number. A '%' sign is dropped here;
// callers decide whether to scale.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "%", "")
	// Normalize non-breaking spaces used as group separators
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\u00A0", " "))
	// Plain Go syntax (including NaN/Inf spellings) needs no locale handling
	if opt.DecimalSeparator == 0 && opt.ThousandsSeparator == 0 {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, true
		}
	}
	dec, thou := separators(raw, opt)
	raw = stripGroups(raw, dec, thou)
	// Replace decimal with '.'
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// separators returns the decimal and thousands separators for raw. Explicit
// options win; otherwise the rightmost of ',' and '.' is the decimal mark.
func separators(raw string, opt Options) (dec, thou rune) {
	dec, thou = opt.DecimalSeparator, opt.ThousandsSeparator
	if dec != 0 {
		return dec, thou
	}
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		// 1.234,5
		return ',', '.'
	case cpos >= 0 && dpos >= 0:
		// 1,234.5
		return '.', ','
	case cpos >= 0:
		// a lone comma is a decimal comma: 0,12
		return ',', thou
	}
	return '.', thou
}

// stripGroups removes thousands separators. With no known separator every
// common group mark that is not the decimal mark goes.
func stripGroups(raw string, dec, thou rune) string {
	if thou != 0 {
		if thou != dec {
			raw = strings.ReplaceAll(raw, string(thou), "")
		}
		return raw
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	return raw
}
