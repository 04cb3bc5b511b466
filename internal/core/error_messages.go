package core

// # Error Codes Reference
//
// User-facing errors carry a short code that can be quoted when reporting
// a problem. Codes are grouped by the stage that failed.
//
// # Fetch Errors (FETCH001-FETCH099)
//
//	FETCH001 - Network: the spreadsheet could not be reached
//	FETCH002 - Timeout: the spreadsheet took too long to answer
//	FETCH003 - HTTP status: the server answered with an error status
//	FETCH004 - Not CSV: an HTML page came back (usually a private sheet)
//	FETCH005 - Too large: the document exceeds the configured size limit
//	FETCH006 - Database: the PostgreSQL source failed
//
// # Parse Errors (PARSE001-PARSE099)
//
//	PARSE001 - Unterminated quote
//	PARSE002 - Text after a closing quote
//	PARSE003 - Invalid decoder settings (quote or delimiter)
//
// # Load Errors (LOAD001-LOAD099)
//
//	LOAD001 - No data yet: nothing has been loaded successfully
//	LOAD002 - Cancelled: the load was cancelled before it finished
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check the application log for the technical error
//
// Typed errors (*source.FetchError, *decoder.ParseError and the sentinels)
// are matched first. Anything else falls back to case-insensitive substring
// patterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sheetview/internal/decoder"
	"github.com/JonMunkholm/sheetview/internal/source"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgNetwork = UserMessage{
		Message: "Could not reach the spreadsheet",
		Action:  "Check the network connection and try reloading",
		Code:    "FETCH001",
	}
	msgTimeout = UserMessage{
		Message: "The spreadsheet took too long to respond",
		Action:  "Try reloading in a few moments",
		Code:    "FETCH002",
	}
	msgStatus = UserMessage{
		Message: "The spreadsheet server returned an error",
		Action:  "Verify the sheet ID and tab, then try reloading",
		Code:    "FETCH003",
	}
	msgNotCSV = UserMessage{
		Message: "The spreadsheet link returned a web page instead of CSV",
		Action:  "Make sure the sheet is shared as \"Anyone with the link\"",
		Code:    "FETCH004",
	}
	msgTooLarge = UserMessage{
		Message: "The spreadsheet is larger than the configured limit",
		Action:  "Raise SOURCE_MAX_BYTES or trim the sheet",
		Code:    "FETCH005",
	}
	msgDatabase = UserMessage{
		Message: "The database query failed",
		Action:  "Check SOURCE_QUERY and the database connection",
		Code:    "FETCH006",
	}
	msgUnterminated = UserMessage{
		Message: "The spreadsheet contains a quoted field that is never closed",
		Action:  "Fix the quote in the reported cell or enable lenient decoding",
		Code:    "PARSE001",
	}
	msgTextAfterQuote = UserMessage{
		Message: "The spreadsheet has text after a closing quote",
		Action:  "Fix the reported cell or enable lenient decoding",
		Code:    "PARSE002",
	}
	msgBadOptions = UserMessage{
		Message: "The decoder settings are invalid",
		Action:  "Use different characters for DECODE_QUOTE and DECODE_DELIMITER",
		Code:    "PARSE003",
	}
	msgNotLoaded = UserMessage{
		Message: "No data has been loaded yet",
		Action:  "Wait for the first load to finish or reload",
		Code:    "LOAD001",
	}
	msgCancelled = UserMessage{
		Message: "The load was cancelled",
		Action:  "Please try again",
		Code:    "LOAD002",
	}
	msgRateLimit = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors that lost their type on the way, e.g.
// messages relayed from another process. Specific patterns come first.
var errorPatterns = []errorPattern{
	{pattern: "unterminated quoted field", msg: msgUnterminated},
	{pattern: "unexpected text after closing quote", msg: msgTextAfterQuote},
	{pattern: "document too large", msg: msgTooLarge},
	{pattern: "no data loaded yet", msg: msgNotLoaded},
	{pattern: "connection refused", msg: msgNetwork},
	{pattern: "no such host", msg: msgNetwork},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{pattern: "timeout", msg: msgTimeout},
	{pattern: "context canceled", msg: msgCancelled},
	{pattern: "rate limit", msg: msgRateLimit},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the server log",
	Code:    "ERR000",
}

// ErrRateLimited is returned to clients that exceed the request rate.
var ErrRateLimited = errors.New("rate limit exceeded")

// MapError converts a technical error to a user-friendly message.
// A nil error yields the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTyped(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTyped(err error) (UserMessage, bool) {
	var fe *source.FetchError
	if errors.As(err, &fe) {
		switch fe.Kind {
		case source.KindNetwork:
			return msgNetwork, true
		case source.KindTimeout:
			return msgTimeout, true
		case source.KindStatus:
			msg := msgStatus
			if fe.Status != 0 {
				msg.Message = fmt.Sprintf("%s (HTTP %d %s)", msg.Message, fe.Status, http.StatusText(fe.Status))
			}
			return msg, true
		case source.KindNotCSV:
			return msgNotCSV, true
		case source.KindTooLarge:
			return msgTooLarge, true
		case source.KindDatabase:
			return msgDatabase, true
		}
	}

	var pe *decoder.ParseError
	if errors.As(err, &pe) {
		msg := msgUnterminated
		if errors.Is(pe, decoder.ErrTextAfterQuote) {
			msg = msgTextAfterQuote
		}
		msg.Message = fmt.Sprintf("%s (line %d, column %d)", msg.Message, pe.Line, pe.Column)
		return msg, true
	}

	switch {
	case errors.Is(err, decoder.ErrInvalidDelimiter):
		return msgBadOptions, true
	case errors.Is(err, ErrNotLoaded):
		return msgNotLoaded, true
	case errors.Is(err, ErrRateLimited):
		return msgRateLimit, true
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout, true
	case errors.Is(err, context.Canceled):
		return msgCancelled, true
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and keeps it for logging. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
