package decoder

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ParseError.
var (
	// ErrUnterminatedQuote is returned when input ends inside a quoted field.
	ErrUnterminatedQuote = errors.New("unterminated quoted field")

	// ErrTextAfterQuote is returned when a closing quote is followed by
	// something other than whitespace, the delimiter or a line break.
	ErrTextAfterQuote = errors.New("unexpected text after closing quote")

	// ErrInvalidDelimiter is returned for unusable quote/delimiter pairs.
	ErrInvalidDelimiter = errors.New("invalid quote or delimiter character")
)

// ParseError locates a structural problem in the input.
// Line and Column are 1-based; Column counts runes.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Warning records a problem that lenient decoding recovered from.
type Warning struct {
	Line   int
	Column int
	Err    error
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d, column %d: %v", w.Line, w.Column, w.Err)
}
