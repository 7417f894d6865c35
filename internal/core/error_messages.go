package core

// Error Codes Reference
//
// This file maps technical errors to user-friendly messages with a code
// users can quote to support staff.
//
// # Ingestion Errors (ING001-ING099)
//
//	ING001 - Busy: another ingestion is in progress
//	         Action: Wait for it to finish and try again
//	         Matches: ErrIngestionBusy
//
//	ING002 - No records: the file held no student rows
//	         Action: Check that data rows carry a student number like 2023-0001
//	         Matches: ErrNoRecords
//
//	ING003 - Session expired: ingestion id unknown
//	         Action: Start a new ingestion
//	         Matches: ErrIngestionNotFound
//
//	ING004 - Nothing ingested: the raw inspector has no table yet
//	         Action: Upload a listing first
//	         Matches: ErrNoData
//
//	ING005 - Cancelled: the request was cancelled
//	         Matches: "context canceled"
//
//	ING006 - Timed out: the pass took too long
//	         Matches: "context deadline exceeded"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large          Matches: ErrFileTooLarge
//	FILE002 - Invalid CSV             Matches: "invalid csv"
//	FILE003 - Unreadable upload       Matches: "read csv"
//	FILE004 - No file                 Matches: "no file provided"
//	FILE005 - Empty file              Matches: parse.ErrEmptyTable
//	FILE006 - Invalid workbook        Matches: "invalid xlsx"
//
// # Store Errors (DB001-DB099)
//
//	DB001 - Store not initialized     Matches: "no such table", "does not exist"
//	DB002 - Store busy                Matches: "database is locked", "deadlock"
//	DB003 - Connection refused        Matches: "connection refused"
//	DB004 - Connection reset          Matches: "connection reset"
//	DB005 - Records not saved         Matches: "scholars" (after DB008)
//	DB006 - History not saved         Matches: "ingestion run"
//	DB007 - Timeout                   Matches: "timeout"
//	DB008 - Records not loaded        Matches: "query scholars", "count scholars", "distinct"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Batch matrix invalid     Matches: "batch matrix"
//	EXP002 - Archive failed           Matches: "archive", "render "
//	EXP003 - CSV write failed         Matches: "csv"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests       Matches: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the
// technical error.
//
// Sentinels are matched with errors.Is before any text pattern, so wrapping
// never changes the code. Text patterns are matched case-insensitively and
// the first match wins.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/lister/internal/parse"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages is checked before any text pattern.
var sentinelMessages = []sentinelMessage{
	{ErrIngestionBusy, UserMessage{
		Message: "Another ingestion is in progress",
		Action:  "Wait for it to finish and try again",
		Code:    "ING001",
	}},
	{ErrNoRecords, UserMessage{
		Message: "No student rows were found in the file",
		Action:  "Check that data rows carry a student number like 2023-0001 in the second column",
		Code:    "ING002",
	}},
	{ErrIngestionNotFound, UserMessage{
		Message: "Ingestion session not found",
		Action:  "The session may have expired. Please start a new ingestion",
		Code:    "ING003",
	}},
	{ErrNoData, UserMessage{
		Message: "Nothing has been ingested yet",
		Action:  "Upload a listing first",
		Code:    "ING004",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the listing into smaller files",
		Code:    "FILE001",
	}},
	{parse.ErrEmptyTable, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a listing with at least one row",
		Code:    "FILE005",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// Specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "ING005",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Ingestion timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "ING006",
	}},

	{"invalid csv", UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Export the listing again as comma-separated values",
		Code:    "FILE002",
	}},
	{"read csv", UserMessage{
		Message: "The upload could not be read",
		Action:  "Please try uploading again",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV or XLSX file to upload",
		Code:    "FILE004",
	}},
	{"invalid xlsx", UserMessage{
		Message: "File is not a valid Excel workbook",
		Action:  "Save the workbook as .xlsx or export it as CSV",
		Code:    "FILE006",
	}},

	{"no such table", UserMessage{
		Message: "The record store is not initialized",
		Action:  "Run the migrate command and try again",
		Code:    "DB001",
	}},
	{"does not exist", UserMessage{
		Message: "The record store is not initialized",
		Action:  "Run the migrate command and try again",
		Code:    "DB001",
	}},
	{"database is locked", UserMessage{
		Message: "The record store is busy",
		Action:  "Please try again",
		Code:    "DB002",
	}},
	{"deadlock", UserMessage{
		Message: "The record store is busy",
		Action:  "Please try again",
		Code:    "DB002",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB003",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB004",
	}},
	{"query scholars", UserMessage{
		Message: "Records could not be loaded",
		Action:  "Please try again",
		Code:    "DB008",
	}},
	{"count scholars", UserMessage{
		Message: "Records could not be loaded",
		Action:  "Please try again",
		Code:    "DB008",
	}},
	{"distinct", UserMessage{
		Message: "Records could not be loaded",
		Action:  "Please try again",
		Code:    "DB008",
	}},
	{"scholars", UserMessage{
		Message: "Records could not be saved; the previous list is unchanged",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"ingestion run", UserMessage{
		Message: "Ingestion history could not be read or saved",
		Action:  "Please try again",
		Code:    "DB006",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "DB007",
	}},

	{"batch matrix", UserMessage{
		Message: "The batch export layout is misconfigured",
		Action:  "Check the courses and years in the vocabulary file",
		Code:    "EXP001",
	}},
	{"archive", UserMessage{
		Message: "The batch archive could not be built",
		Action:  "Please try again",
		Code:    "EXP002",
	}},
	{"render ", UserMessage{
		Message: "The batch archive could not be built",
		Action:  "Please try again",
		Code:    "EXP002",
	}},
	{"csv", UserMessage{
		Message: "The CSV export could not be written",
		Action:  "Please try again",
		Code:    "EXP003",
	}},

	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(fmt.Errorf("%w: %w", ErrIngestionFailed, parse.ErrEmptyTable))
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action"
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
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
