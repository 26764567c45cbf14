package catalogsync

import "time"

// UnitError describes why one unit could not be synced
type UnitError struct {
	Unit    string `json:"unit"`
	Code    string `json:"code,omitempty"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Stages reported in UnitError
const (
	StageValidate = "validate"
	StageLookup   = "lookup"
	StageCreate   = "create"
	StageUpdate   = "update"
	StageExpand   = "expand"
)

// RunSummary is the outcome of one reconciliation run. Error is set only when
// the run was aborted before all units were processed.
type RunSummary struct {
	Units      int         `json:"units"`
	Created    int         `json:"created"`
	Updated    int         `json:"updated"`
	Skipped    int         `json:"skipped"`
	Errors     []UnitError `json:"errors"`
	Error      string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// NewRunSummary creates an empty summary stamped with the start time
func NewRunSummary(startedAt time.Time) *RunSummary {
	return &RunSummary{
		Errors:    make([]UnitError, 0),
		StartedAt: startedAt,
	}
}

// AddError records a per-unit failure
func (s *RunSummary) AddError(unit CatalogUnit, code, stage string, err error) {
	s.Errors = append(s.Errors, UnitError{
		Unit:    unit.Ref(),
		Code:    code,
		Stage:   stage,
		Message: err.Error(),
	})
}

// Abort marks the run as aborted
func (s *RunSummary) Abort(err error, at time.Time) {
	s.Error = err.Error()
	s.FinishedAt = at
}

// Finish stamps the completion time
func (s *RunSummary) Finish(at time.Time) {
	s.FinishedAt = at
}
