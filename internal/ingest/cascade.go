package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/grnsync/internal/instrumentation"
	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/table"
)

// DefaultStrategyTimeout bounds a single strategy attempt.
const DefaultStrategyTimeout = 30 * time.Second

// Attempt statuses.
const (
	AttemptSuccess = instrumentation.StatusSuccess
	AttemptEmpty   = instrumentation.StatusEmpty
	AttemptError   = instrumentation.StatusError
	AttemptSkipped = instrumentation.StatusSkipped
)

// ErrTimeout is reported for a strategy that exceeded its time budget.
var ErrTimeout = errors.New("strategy timed out")

// Attempt is the record of one strategy in one cascade run.
type Attempt struct {
	Strategy string
	Status   string
	Rows     int
	Duration time.Duration
	Err      error
}

// Result is the outcome of a cascade run. Table is empty when every
// strategy failed; Diagnosis is only filled in that case.
type Result struct {
	Table     table.Table
	Strategy  string
	Attempts  []Attempt
	Diagnosis *Diagnosis
}

// OK reports whether a strategy produced a non-empty table.
func (r Result) OK() bool {
	return r.Strategy != "" && !r.Table.Empty()
}

// Cascade tries an ordered list of strategies against the same file and
// returns the first non-empty table.
type Cascade struct {
	strategies []Strategy
	caps       *Capabilities
	timeout    time.Duration
	sink       logging.Sink
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// Option configures a Cascade.
type Option func(*Cascade)

// WithCapabilities sets the availability registry.
func WithCapabilities(c *Capabilities) Option {
	return func(cs *Cascade) { cs.caps = c }
}

// WithTimeout sets the per-strategy time budget; zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(cs *Cascade) { cs.timeout = d }
}

// WithSink sets the progress line sink.
func WithSink(s logging.Sink) Option {
	return func(cs *Cascade) { cs.sink = s }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(cs *Cascade) { cs.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(cs *Cascade) { cs.metrics = m }
}

// NewCascade builds a cascade over strategies, tried in the given order.
func NewCascade(strategies []Strategy, opts ...Option) *Cascade {
	c := &Cascade{
		strategies: strategies,
		caps:       AllAvailable(),
		timeout:    DefaultStrategyTimeout,
		sink:       logging.Discard,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Strategies returns the strategy names in cascade order.
func (c *Cascade) Strategies() []string {
	names := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Capabilities returns the registry the cascade consults.
func (c *Cascade) Capabilities() *Capabilities {
	return c.caps
}

// Run applies the strategies in order until one yields a non-empty table.
// It never returns an error: strategy failures are recorded as attempts,
// and exhaustion is reported through an empty Result with a Diagnosis.
func (c *Cascade) Run(ctx context.Context, src Source, policy table.HeaderPolicy) Result {
	logger := c.logger.With(logging.File(src.Name))
	var res Result

	for _, s := range c.strategies {
		name := s.Name()

		if !c.caps.IsAvailable(name) {
			reason := c.caps.Reason(name)
			res.Attempts = append(res.Attempts, Attempt{Strategy: name, Status: AttemptSkipped})
			c.metrics.RecordStrategyAttempt(ctx, name, AttemptSkipped, 0)
			c.sink.Printf("%s skipped for %s: %s", name, src.Name, reason)
			logger.Debug("strategy unavailable", logging.Strategy(name), slog.String("reason", reason))
			continue
		}
		if m, ok := s.(Matcher); ok && !m.Accepts(src) {
			res.Attempts = append(res.Attempts, Attempt{Strategy: name, Status: AttemptSkipped})
			c.sink.Printf("%s skipped for %s: not applicable to this file", name, src.Name)
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Attempts = append(res.Attempts, Attempt{Strategy: name, Status: AttemptError, Err: err})
			break
		}

		c.sink.Printf("Trying %s parser for %s", name, src.Name)
		start := time.Now()
		t, err := c.attempt(ctx, s, src, policy)
		a := Attempt{Strategy: name, Duration: time.Since(start), Err: err}

		switch {
		case errors.Is(err, table.ErrNoData), err == nil && t.Empty():
			a.Status = AttemptEmpty
			a.Err = nil
			c.sink.Printf("%s returned no data for %s", name, src.Name)
		case err != nil:
			a.Status = AttemptError
			c.sink.Printf("%s failed for %s: %v", name, src.Name, err)
			logger.Debug("strategy failed", logging.Strategy(name), logging.Err(err))
		default:
			a.Status = AttemptSuccess
			a.Rows = len(t.Rows)
		}
		c.metrics.RecordStrategyAttempt(ctx, name, a.Status, a.Duration)
		res.Attempts = append(res.Attempts, a)

		if a.Status == AttemptSuccess {
			c.sink.Printf("%s parsed %s: %d rows, %d columns", name, src.Name, len(t.Rows), t.Width())
			logger.Info("parsed file", logging.Strategy(name), logging.Rows(len(t.Rows)))
			res.Table = t
			res.Strategy = name
			return res
		}
	}

	d := Diagnose(src.Data)
	res.Diagnosis = &d
	c.sink.Printf("All parsing strategies failed for %s. File signature: %s", src.Name, d.Hex)
	if d.MIME != "" {
		c.sink.Printf("Detected content type for %s: %s", src.Name, d.MIME)
	}
	if d.Encrypted {
		c.sink.Printf("%s is an encrypted workbook; it must be saved without a password", src.Name)
	}
	logger.Warn("all strategies exhausted",
		slog.String("signature", d.Hex),
		slog.String("mime", d.MIME),
		slog.Bool("encrypted", d.Encrypted))
	return res
}

// attempt runs one strategy with the per-strategy timeout. Panics become
// errors. A strategy that ignores its context is abandoned when the budget
// runs out; its goroutine finishes in the background.
func (c *Cascade) attempt(ctx context.Context, s Strategy, src Source, policy table.HeaderPolicy) (table.Table, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	type outcome struct {
		t   table.Table
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		t, err := s.Parse(ctx, src, policy)
		done <- outcome{t, err}
	}()

	select {
	case o := <-done:
		return o.t, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return table.Table{}, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return table.Table{}, ctx.Err()
	}
}
