// Package decoder converts delimited spreadsheet text into typed records.
//
// The first non-blank line supplies the header names unless headers are
// passed explicitly, in which case every line is data. Each remaining line
// becomes a Record keyed by header name, with each token coerced to a
// Value: empty tokens are Null, decimal literals are Numbers, everything
// else is Text.
//
// Tokenizing is done by an explicit state machine (field start, unquoted,
// quoted, after quote). Quoted fields may contain the delimiter, doubled
// quote characters and line breaks. Structural problems are reported as a
// *ParseError unless Options.Lenient is set, in which case decoding carries
// on and the problem is recorded in Document.Warnings.
package decoder

import (
	"sort"
	"strconv"
	"strings"
)

// Default quoting and separator characters.
const (
	DefaultQuote     = '"'
	DefaultDelimiter = ','
)

// extraPrefix names tokens that have no header at their position.
const extraPrefix = "extra_"

// MissingPolicy controls how a line with fewer tokens than headers is
// represented.
type MissingPolicy int

const (
	// MissingNull sets every header not present on the line to Null, so all
	// records share the same keys.
	MissingNull MissingPolicy = iota

	// MissingOmit leaves absent headers out of the record entirely.
	MissingOmit
)

// ParseMissingPolicy maps "null" and "omit" to a policy.
func ParseMissingPolicy(s string) (MissingPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null":
		return MissingNull, true
	case "omit":
		return MissingOmit, true
	default:
		return MissingNull, false
	}
}

// Options configures a decode call. The zero value decodes standard
// comma-separated, double-quoted text with headers from the first line.
type Options struct {
	// Headers, when non-nil, are used for every line and the first line is
	// treated as data.
	Headers []string

	// Quote wraps fields that contain the delimiter or line breaks.
	Quote rune

	// Delimiter separates fields.
	Delimiter rune

	Missing MissingPolicy

	// Lenient recovers from unterminated quotes and text after a closing
	// quote instead of failing.
	Lenient bool
}

func (o Options) withDefaults() Options {
	if o.Quote == 0 {
		o.Quote = DefaultQuote
	}
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	return o
}

func (o Options) validate() error {
	if o.Quote == o.Delimiter {
		return ErrInvalidDelimiter
	}
	for _, r := range []rune{o.Quote, o.Delimiter} {
		if r == '\n' || r == '\r' || r == 0xFFFD {
			return ErrInvalidDelimiter
		}
	}
	return nil
}

// Record maps header names to cell values.
type Record map[string]Value

// Document is the result of one decode call.
type Document struct {
	Headers  []string
	Records  []Record
	Warnings []Warning
}

// Len returns the number of records.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Keys returns the keys of record i in column order: header names first,
// in header order, followed by extra_<n> keys by position.
func (d *Document) Keys(i int) []string {
	if d == nil || i < 0 || i >= len(d.Records) {
		return nil
	}
	rec := d.Records[i]
	keys := make([]string, 0, len(rec))
	seen := make(map[string]bool, len(rec))
	for _, h := range d.Headers {
		if h == "" || seen[h] {
			continue
		}
		if _, ok := rec[h]; ok {
			keys = append(keys, h)
			seen[h] = true
		}
	}

	var rest []string
	for k := range rec {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Slice(rest, func(a, b int) bool {
		ia, oka := extraIndex(rest[a])
		ib, okb := extraIndex(rest[b])
		if oka && okb && ia != ib {
			return ia < ib
		}
		if oka != okb {
			return oka
		}
		return rest[a] < rest[b]
	})
	return append(keys, rest...)
}

// Decode parses raw into a Document.
func Decode(raw string, opts Options) (*Document, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	raw = strings.TrimPrefix(raw, "\ufeff")
	sc := newScanner(raw, opts)

	headers := opts.Headers
	if headers == nil {
		tokens, _, err := sc.next()
		if err != nil {
			return nil, err
		}
		headers = tokens
	}

	doc := &Document{Headers: append([]string(nil), headers...)}
	for {
		tokens, _, err := sc.next()
		if err != nil {
			return nil, err
		}
		if tokens == nil {
			break
		}
		doc.Records = append(doc.Records, buildRecord(doc.Headers, tokens, opts.Missing))
	}
	doc.Warnings = sc.warnings
	return doc, nil
}

// DecodeRecords is the plain form of Decode: headers may be nil to read
// them from the first line, and zero quote/delimiter select the defaults.
func DecodeRecords(raw string, headers []string, quote, delimiter rune) ([]Record, error) {
	doc, err := Decode(raw, Options{Headers: headers, Quote: quote, Delimiter: delimiter})
	if err != nil {
		return nil, err
	}
	return doc.Records, nil
}

// KeyFor returns the record key for token position i.
func KeyFor(headers []string, i int) string {
	if i < len(headers) && headers[i] != "" {
		return headers[i]
	}
	return extraPrefix + strconv.Itoa(i)
}

func buildRecord(headers, tokens []string, missing MissingPolicy) Record {
	size := len(tokens)
	if len(headers) > size {
		size = len(headers)
	}
	rec := make(Record, size)
	for i, tok := range tokens {
		rec[KeyFor(headers, i)] = Coerce(tok)
	}
	if missing == MissingNull {
		for i := len(tokens); i < len(headers); i++ {
			key := KeyFor(headers, i)
			if _, ok := rec[key]; !ok {
				rec[key] = Null()
			}
		}
	}
	return rec
}

func extraIndex(key string) (int, bool) {
	if !strings.HasPrefix(key, extraPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(key[len(extraPrefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}
