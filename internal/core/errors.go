package core

import "errors"

var (
	// ErrIngestionBusy is returned when another pass holds the store and
	// does not finish within the wait time. Clients should retry.
	ErrIngestionBusy = errors.New("ingestion busy: another ingestion is in progress")

	// ErrIngestionFailed wraps a pass-level failure: the input could not be
	// read or the store could not be rebuilt. The previous record set is kept.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrNoRecords means the pass completed but found no data rows. The
	// store is rebuilt empty.
	ErrNoRecords = errors.New("no records: the file contained no recognizable student rows")

	// ErrNoData is returned by the raw inspector before any table was read.
	ErrNoData = errors.New("no data: nothing has been ingested yet")

	// ErrIngestionNotFound is returned for unknown or expired ingestion ids.
	ErrIngestionNotFound = errors.New("ingestion not found")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)
