package parse

import (
	"context"
	"fmt"
)

// ProgressInterval is how many rows IngestContext folds between
// cancellation checks and progress callbacks.
var ProgressInterval = 100

// State is the context threaded through an ingestion pass.
type State struct {
	Category Category
}

// Step is the outcome of feeding one row to Advance.
// At most one of Record and Anomaly is set.
type Step struct {
	Kind    Kind
	Record  *Record
	Anomaly *Anomaly
}

// Start returns the state before the first row.
func (r Rules) Start() State {
	return State{Category: r.Default}
}

// Advance folds row number idx into st. Only header rows change the state.
func (r Rules) Advance(st State, idx int, row []string) (State, Step) {
	c := r.Classify(row)
	switch c.Kind {
	case KindHeader:
		return State{Category: c.Category}, Step{Kind: KindHeader}
	case KindData:
		rec, err := Normalize(row, st.Category)
		if err != nil {
			return st, Step{Kind: KindData, Anomaly: &Anomaly{Row: idx, Reason: err.Error()}}
		}
		return st, Step{Kind: KindData, Record: &rec}
	default:
		return st, Step{Kind: KindSkip}
	}
}

// Result is the output of one ingestion pass.
type Result struct {
	Rows      int
	Headers   int
	Records   []Record
	Anomalies []Anomaly
	Log       []string
}

// Ingest runs the classifier and normalizer over table in row order.
//
// The whole table is scanned before anything is returned; callers must not
// use records from a pass that failed to complete.
func Ingest(table [][]string, rules Rules) Result {
	res, _ := IngestContext(context.Background(), table, rules, nil)
	return res
}

// IngestContext is Ingest with cancellation. If onProgress is non-nil it is
// called with the number of rows folded so far every ProgressInterval rows
// and once when the table is exhausted.
//
// On cancellation the partial result is returned together with ctx.Err().
func IngestContext(ctx context.Context, table [][]string, rules Rules, onProgress func(done int)) (Result, error) {
	res := Result{
		Rows:    len(table),
		Records: make([]Record, 0, len(table)),
		Log:     []string{fmt.Sprintf("Loaded table with %d rows.", len(table))},
	}

	st := rules.Start()
	for i, row := range table {
		if i > 0 && i%ProgressInterval == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if onProgress != nil {
				onProgress(i)
			}
		}

		var step Step
		st, step = rules.Advance(st, i, row)
		switch {
		case step.Kind == KindHeader:
			res.Headers++
		case step.Record != nil:
			res.Records = append(res.Records, *step.Record)
		case step.Anomaly != nil:
			res.Anomalies = append(res.Anomalies, *step.Anomaly)
			res.Log = append(res.Log, step.Anomaly.String())
		}
	}
	if onProgress != nil {
		onProgress(len(table))
	}
	return res, nil
}
