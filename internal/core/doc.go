// Package core provides the ingestion service for scholar listings.
//
// It is independent of any transport: the web handlers and the CLI both
// drive the same [Service].
//
// # Ingestion
//
// A pass reads an uploaded CSV or XLSX file into a raw table, folds it
// through the classifier and normalizer, and rebuilds the record store with
// the result. Passes are serialized by a one-slot [Limiter]; a second pass
// waits briefly and then fails with [ErrIngestionBusy].
//
//  1. [Service.StartIngest] registers the pass and returns its id
//  2. Progress is broadcast to subscribers via [Service.SubscribeProgress]
//  3. [Service.Result] waits for the [Report]
//
// [Service.Ingest] runs the same pass synchronously.
//
// The store is rebuilt only when the pass completes with at least one
// record. A pass with no records ends with [ErrNoRecords]; a pass that cannot
// read its input or write the store ends with an error wrapping
// [ErrIngestionFailed]. Every pass is appended to the ingestion history.
//
// # Reading
//
// [Service.Summary], [Service.Records], [Service.Export] and [Service.Batch]
// read the store. [Service.Raw] pages through the last raw table.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
package core
