package consulta

import (
	"time"

	"exemplo.com.br/creditos/internal/core/credit"
)

// Phase is the lifecycle stage of the current query.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// State is what the page renders for one browser session.
// Generation identifies the record set: it changes every time a query resolves.
type State struct {
	Phase         Phase               `json:"phase"`
	Records       []credit.Record     `json:"-"`
	Total         int                 `json:"total"`
	Message       string              `json:"message,omitempty"`
	ErrorMessage  string              `json:"errorMessage,omitempty"`
	ErrorKind     credit.ErrorKind    `json:"errorKind,omitempty"`
	LastQueriedAt time.Time           `json:"lastQueriedAt,omitzero"`
	Query         credit.QueryRequest `json:"-"`
	Generation    uint64              `json:"generation"`
}

// HasResults reports whether there is at least one record to show.
func (s State) HasResults() bool {
	return s.Phase == PhaseSuccess && len(s.Records) > 0
}

// clone copies the record slice so callers cannot alias orchestrator memory.
func (s State) clone() State {
	if s.Records != nil {
		s.Records = append([]credit.Record(nil), s.Records...)
	}
	return s
}
