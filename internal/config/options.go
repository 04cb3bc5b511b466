package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/JonMunkholm/sheetview/internal/decoder"
	"github.com/JonMunkholm/sheetview/internal/source"
)

// FetchURL returns the URL an http source downloads. Google Sheets links
// are rewritten to their CSV export.
func (c *SourceConfig) FetchURL() string {
	if c.URL != "" {
		return source.ExportURL(c.URL)
	}
	return source.SheetExportURL(c.SheetID, c.SheetGID)
}

// Options converts the settings into decoder options.
func (c *DecodeConfig) Options() (decoder.Options, error) {
	quote, err := parseChar("DECODE_QUOTE", c.Quote)
	if err != nil {
		return decoder.Options{}, err
	}
	delim, err := parseChar("DECODE_DELIMITER", c.Delimiter)
	if err != nil {
		return decoder.Options{}, err
	}
	if quote == delim {
		return decoder.Options{}, fmt.Errorf("DECODE_QUOTE and DECODE_DELIMITER must differ (both %q)", quote)
	}

	missing, ok := decoder.ParseMissingPolicy(c.Missing)
	if !ok {
		return decoder.Options{}, fmt.Errorf("DECODE_MISSING (%q) must be one of: null, omit", c.Missing)
	}

	opts := decoder.Options{
		Quote:     quote,
		Delimiter: delim,
		Missing:   missing,
		Lenient:   c.Lenient,
	}
	if len(c.Headers) > 0 {
		opts.Headers = append([]string(nil), c.Headers...)
	}
	return opts, nil
}

// parseChar reads a single-character setting. "tab" and \t mean a tab.
func parseChar(name, s string) (rune, error) {
	switch strings.ToLower(s) {
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%s (%q) must be a single character", name, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '\n' || r == '\r' || r == utf8.RuneError {
		return 0, fmt.Errorf("%s (%q) is not allowed", name, s)
	}
	return r, nil
}

// Tag returns the parsed locale, falling back to Brazilian Portuguese.
func (c *TableConfig) Tag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return tag
}
