package importer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reDigits  = regexp.MustCompile(`\D+`)
	reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)
)

func cleanEAN(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return reDigits.ReplaceAllString(s, "")
}

// normalizeCharset mapuje nietypowe etykiety na standardowe nazwy rozpoznawane przez charset.NewReaderLabel
func normalizeCharset(cs string) string {
	c := strings.TrimSpace(strings.ToLower(cs))
	switch c {
	case "latin ii", "latin-2", "latin2", "iso8859-2", "iso_8859-2":
		return "iso-8859-2"
	case "cp1250", "windows1250", "win-1250":
		return "windows-1250"
	default:
		return c
	}
}

func yn(s string) bool {
	switch strings.TrimSpace(strings.ToUpper(s)) {
	case "Y", "T", "1", "TAK":
		return true
	default:
		return false
	}
}

// dec – cena z PCM ("12,50", "", " 3.1 ")
func dec(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	// zamień ewentualny przecinek na kropkę
	s = strings.ReplaceAll(s, ",", ".")
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// slugify: "Żółty kubek 0,5l" -> "zolty-kubek-0-5l"
func slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	// litery bez rozkładu NFD
	out = strings.NewReplacer("ł", "l", "ß", "ss", "đ", "d", "ø", "o").Replace(out)
	out = reNonSlug.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}
