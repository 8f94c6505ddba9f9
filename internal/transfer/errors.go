package transfer

import "fmt"

// Stage names the pipeline step that failed.
type Stage string

// Pipeline stages.
const (
	StageValidate Stage = "validate"
	StageFetch    Stage = "fetch"
	StageParse    Stage = "parse"
	StagePrepare  Stage = "prepare"
	StageWipe     Stage = "wipe"
	StageWrite    Stage = "write"
)

// StageError is returned when a step before or around the batch writes fails.
type StageError struct {
	Err   error
	Stage Stage
	Tab   string
}

func (e *StageError) Error() string {
	if e.Tab != "" {
		return fmt.Sprintf("%s failed for tab %q: %v", e.Stage, e.Tab, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// BatchError reports a write that failed for good. Batches before Batch were
// committed and are not rolled back; RowsWritten counts their rows.
type BatchError struct {
	Err         error
	Tab         string
	Batch       int // zero-based
	Batches     int
	StartRow    int
	RowsWritten int
	Attempts    int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("tab %q batch %d/%d (rows from %d) failed after %d attempt(s); %d rows already written: %v",
		e.Tab, e.Batch+1, e.Batches, e.StartRow, e.Attempts, e.RowsWritten, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
