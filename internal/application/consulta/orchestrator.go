package consulta

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"exemplo.com.br/creditos/internal/core/credit"
	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
)

// Policy decides which outcome wins when queries overlap.
type Policy string

const (
	// PolicySequenceGuard cancels the superseded query and drops its outcome.
	PolicySequenceGuard Policy = "sequence"
	// PolicyLastArrival applies outcomes in arrival order, so a slow earlier
	// query can overwrite a newer one.
	PolicyLastArrival Policy = "last-arrival"
)

// ParsePolicy falls back to PolicySequenceGuard for unknown values.
func ParsePolicy(raw string) Policy {
	if Policy(raw) == PolicyLastArrival {
		return PolicyLastArrival
	}
	return PolicySequenceGuard
}

const DefaultTimeout = 30 * time.Second

// ErrNothingToRetry is returned by Retry before any query was submitted.
var ErrNothingToRetry = errors.New("no previous query to retry")

// Options tunes an Orchestrator. Zero values select the defaults.
type Options struct {
	Timeout time.Duration
	Policy  Policy
	Now     func() time.Time
}

// Orchestrator drives one session's query lifecycle: it dispatches a
// request to the credit service and folds the outcome into State.
type Orchestrator struct {
	service credit.QueryService
	log     *slog.Logger
	timeout time.Duration
	policy  Policy
	now     func() time.Time

	mu     sync.Mutex
	state  State
	seq    uint64
	cancel context.CancelFunc
}

func NewOrchestrator(service credit.QueryService, log *slog.Logger, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Policy == "" {
		opts.Policy = PolicySequenceGuard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		service: service,
		log:     log,
		timeout: opts.Timeout,
		policy:  opts.Policy,
		now:     opts.Now,
		state:   State{Phase: PhaseIdle},
	}
}

// State returns a snapshot of the current presentation state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Policy reports the ordering policy in effect.
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

type outcome struct {
	result *credit.QueryResult
	err    error
}

// Submit runs req to completion and returns the resulting state. It blocks
// for at most the configured timeout.
func (o *Orchestrator) Submit(ctx context.Context, req credit.QueryRequest) State {
	qctx, cancel, seq := o.begin(ctx, req)
	defer cancel()

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		res, err := credit.Dispatch(qctx, o.service, req)
		done <- outcome{result: res, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-qctx.Done():
		out = outcome{err: qctx.Err()}
	}
	if out.err != nil && errors.Is(qctx.Err(), context.DeadlineExceeded) {
		out.err = &credit.QueryError{Kind: credit.KindTimeout, Err: out.err}
	}

	return o.finish(ctx, seq, req, out, time.Since(start))
}

// Retry re-submits the last query, whatever its outcome was.
func (o *Orchestrator) Retry(ctx context.Context) (State, error) {
	o.mu.Lock()
	req := o.state.Query
	o.mu.Unlock()

	if req.Value == "" {
		return o.State(), ErrNothingToRetry
	}
	return o.Submit(ctx, req), nil
}

// Reset drops results and cancels anything in flight.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.seq++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.state = State{Phase: PhaseIdle, Generation: o.seq}
}

func (o *Orchestrator) begin(ctx context.Context, req credit.QueryRequest) (context.Context, context.CancelFunc, uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.seq++
	if o.policy == PolicySequenceGuard && o.cancel != nil {
		o.cancel()
	}

	qctx, cancel := context.WithTimeout(ctx, o.timeout)
	o.cancel = cancel

	o.state = State{
		Phase:         PhaseLoading,
		Query:         req,
		LastQueriedAt: o.state.LastQueriedAt,
		Generation:    o.state.Generation,
	}
	return qctx, cancel, o.seq
}

func (o *Orchestrator) finish(ctx context.Context, seq uint64, req credit.QueryRequest, out outcome, elapsed time.Duration) State {
	o.mu.Lock()
	defer o.mu.Unlock()

	attrs := []any{
		"correlation_id", ctxutil.GetCorrelationID(ctx),
		"kind", string(req.Kind),
		"sequence", seq,
		"duration_ms", elapsed.Milliseconds(),
	}

	if o.policy == PolicySequenceGuard && seq != o.seq {
		o.log.Debug("Discarding superseded credit query outcome", append(attrs, "latest_sequence", o.seq)...)
		return o.state.clone()
	}
	if seq == o.seq {
		o.cancel = nil
	}

	next := State{
		Query:         req,
		LastQueriedAt: o.state.LastQueriedAt,
		Generation:    seq,
	}

	if out.err != nil {
		next.Phase = PhaseError
		next.LastQueriedAt = o.now()
		next.ErrorKind = credit.KindOf(out.err)
		next.ErrorMessage = ErrorMessage(out.err)
		o.state = next
		o.log.Warn("Credit query failed", append(attrs, "error_kind", next.ErrorKind, "error", out.err)...)
		return o.state.clone()
	}

	if out.result == nil {
		out.result = &credit.QueryResult{}
	}
	next.Phase = PhaseSuccess
	next.Records = out.result.Records
	next.Total = out.result.Total
	next.LastQueriedAt = out.result.Timestamp
	if next.LastQueriedAt.IsZero() {
		next.LastQueriedAt = o.now()
	}
	if len(next.Records) == 0 {
		next.Message = MessageNoResults
	}
	o.state = next
	o.log.Info("Credit query resolved", append(attrs, "results", next.Total)...)
	return o.state.clone()
}
