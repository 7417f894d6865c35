package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/lister/internal/parse"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"busy", ErrIngestionBusy, "ING001"},
		{"no records wrapped", fmt.Errorf("pass list.csv: %w", ErrNoRecords), "ING002"},
		{"not found", fmt.Errorf("%w: abc", ErrIngestionNotFound), "ING003"},
		{"no data", ErrNoData, "ING004"},
		{"empty table inside failed pass", fmt.Errorf("%w: %w", ErrIngestionFailed, parse.ErrEmptyTable), "FILE005"},
		{"file too large", fmt.Errorf("%w: 30MB", ErrFileTooLarge), "FILE001"},
		{"cancelled", fmt.Errorf("%w: %w", ErrIngestionFailed, context.Canceled), "ING005"},
		{"deadline", context.DeadlineExceeded, "ING006"},
		{"invalid csv", errors.New(`invalid csv: parse error on line 3: bare " in non-quoted-field`), "FILE002"},
		{"invalid xlsx", errors.New("invalid xlsx: zip: not a valid zip file"), "FILE006"},
		{"sqlite missing table", errors.New("query scholars: SQL logic error: no such table: scholars (1)"), "DB001"},
		{"sqlite locked", errors.New("insert scholars 0-499: database is locked (5)"), "DB002"},
		{"connection refused", errors.New("connect to database: dial tcp: connection refused"), "DB003"},
		{"read failure", errors.New("count scholars: bad conn"), "DB008"},
		{"write failure", errors.New("insert scholars 0-3: disk I/O error"), "DB005"},
		{"history", errors.New("record ingestion run: disk full"), "DB006"},
		{"matrix", errors.New("batch matrix: duplicate course \"BSIT\""), "EXP001"},
		{"archive", errors.New("finalize archive: short write"), "EXP002"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"case insensitive", errors.New("INVALID CSV"), "FILE002"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q (message %q)", got.Code, tt.wantCode, got.Message)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrIngestionBusy)

	expected := "Another ingestion is in progress (Code: ING001). Wait for it to finish and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"sentinel is user facing", ErrNoRecords, true},
		{"known pattern is user facing", errors.New("invalid csv"), true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("%w: %w", ErrIngestionFailed, errors.New("invalid csv: extraneous quote"))
		userErr := NewUserError(techErr)

		if userErr.Error() != "File is not a valid CSV" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrIngestionFailed) {
			t.Error("Unwrap() should expose the original error chain")
		}
	})
}
