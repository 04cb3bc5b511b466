package decoder

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// scanState is the tokenizer state within one field.
type scanState int

const (
	stateFieldStart scanState = iota
	stateUnquoted
	stateQuoted
	stateAfterQuote
)

// scanner splits raw text into records of raw string tokens.
//
// It walks the whole document rather than pre-split lines, so quoted
// fields may contain the delimiter and line breaks.
type scanner struct {
	src     string
	pos     int
	line    int
	col     int
	quote   rune
	delim   rune
	fold    bool // runs of the delimiter separate a single field
	lenient bool

	warnings []Warning
}

func newScanner(src string, opts Options) *scanner {
	return &scanner{
		src:     src,
		line:    1,
		col:     1,
		quote:   opts.Quote,
		delim:   opts.Delimiter,
		fold:    opts.Delimiter != '\t' && unicode.IsSpace(opts.Delimiter),
		lenient: opts.Lenient,
	}
}

// isSpace reports whether r is skippable whitespace around a field.
// The delimiter never counts, so tab-separated input works.
func (s *scanner) isSpace(r rune) bool {
	return r != s.delim && r != '\n' && unicode.IsSpace(r)
}

// advance consumes one rune and keeps line/column bookkeeping.
func (s *scanner) advance(size int, r rune) {
	s.pos += size
	if r == '\n' {
		s.line++
		s.col = 1
		return
	}
	s.col++
}

// atLineEnd reports whether the rune at the current position ends a line
// and how many bytes the terminator spans ("\n" or "\r\n").
func (s *scanner) atLineEnd(r rune) (int, bool) {
	switch r {
	case '\n':
		return 1, true
	case '\r':
		if s.pos+1 < len(s.src) && s.src[s.pos+1] == '\n' {
			return 2, true
		}
	}
	return 0, false
}

// consumeLineEnd skips a line terminator of n bytes.
func (s *scanner) consumeLineEnd(n int) {
	s.pos += n
	s.line++
	s.col = 1
}

// next reads the next non-blank record. It returns nil tokens and a nil
// error once the input is exhausted. line is where the record started.
func (s *scanner) next() (tokens []string, line int, err error) {
	var (
		field      strings.Builder
		state      = stateFieldStart
		sawContent bool
		quotePos   int
		quoteLine  int
		quoteCol   int
	)
	line = s.line

	emitUnquoted := func() {
		tokens = append(tokens, strings.TrimRightFunc(field.String(), s.isSpace))
		field.Reset()
	}
	emit := func() {
		tokens = append(tokens, field.String())
		field.Reset()
	}

	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		n, eol := s.atLineEnd(r)

		switch state {
		case stateFieldStart:
			switch {
			case eol:
				s.consumeLineEnd(n)
				if !sawContent {
					// Blank line: no record, keep looking.
					line = s.line
					continue
				}
				if !s.fold {
					tokens = append(tokens, "")
				}
				return tokens, line, nil
			case s.isSpace(r), r == s.delim && s.fold:
				s.advance(size, r)
			case r == s.delim:
				sawContent = true
				tokens = append(tokens, "")
				s.advance(size, r)
			case r == s.quote:
				sawContent = true
				quotePos, quoteLine, quoteCol = s.pos, s.line, s.col
				state = stateQuoted
				s.advance(size, r)
			default:
				sawContent = true
				field.WriteRune(r)
				state = stateUnquoted
				s.advance(size, r)
			}

		case stateUnquoted:
			switch {
			case eol:
				s.consumeLineEnd(n)
				emitUnquoted()
				return tokens, line, nil
			case r == s.delim:
				emitUnquoted()
				state = stateFieldStart
				s.advance(size, r)
			default:
				field.WriteRune(r)
				s.advance(size, r)
			}

		case stateQuoted:
			if r == s.quote {
				s.advance(size, r)
				if s.pos < len(s.src) {
					if nr, nsize := utf8.DecodeRuneInString(s.src[s.pos:]); nr == s.quote {
						field.WriteRune(s.quote)
						s.advance(nsize, nr)
						continue
					}
				}
				state = stateAfterQuote
				continue
			}
			field.WriteRune(r)
			s.advance(size, r)

		case stateAfterQuote:
			switch {
			case eol:
				s.consumeLineEnd(n)
				emit()
				return tokens, line, nil
			case r == s.delim:
				emit()
				state = stateFieldStart
				s.advance(size, r)
			case s.isSpace(r):
				s.advance(size, r)
			default:
				if !s.lenient {
					return nil, line, &ParseError{Line: s.line, Column: s.col, Err: ErrTextAfterQuote}
				}
				s.warnings = append(s.warnings, Warning{Line: s.line, Column: s.col, Err: ErrTextAfterQuote})
				// Keep the field as written, quotes included, and continue unquoted.
				field.Reset()
				field.WriteString(s.src[quotePos:s.pos])
				field.WriteRune(r)
				state = stateUnquoted
				s.advance(size, r)
			}
		}
	}

	// End of input.
	switch state {
	case stateFieldStart:
		if !sawContent {
			return nil, line, nil
		}
		if !s.fold {
			tokens = append(tokens, "")
		}
	case stateUnquoted:
		emitUnquoted()
	case stateAfterQuote:
		emit()
	case stateQuoted:
		if !s.lenient {
			return nil, line, &ParseError{Line: quoteLine, Column: quoteCol, Err: ErrUnterminatedQuote}
		}
		s.warnings = append(s.warnings, Warning{Line: quoteLine, Column: quoteCol, Err: ErrUnterminatedQuote})
		emit()
	}
	return tokens, line, nil
}
