package query

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Executor is the downstream collaborator that performs the actual
// database round trip. It receives rendered SQL plus the name-to-value
// binding map and returns rows, a scalar count, or an existence flag.
//
// Execution errors belong to the executor's own taxonomy; the builder
// never produces them and never retries.
type Executor interface {
	Query(ctx context.Context, sql string, params map[string]any) ([]map[string]any, error)
	Count(ctx context.Context, sql string, params map[string]any) (int64, error)
	Exists(ctx context.Context, sql string, params map[string]any) (bool, error)
}

// StubExecutor is the no-database Executor: Query always returns no rows,
// Count zero, Exists false. It logs each call at debug level with a
// time-sortable UUIDv7 statement token for trace correlation.
type StubExecutor struct {
	logger *slog.Logger
}

// NewStubExecutor creates a StubExecutor logging through the given logger.
// A nil logger discards all output.
func NewStubExecutor(logger *slog.Logger) *StubExecutor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StubExecutor{logger: logger}
}

// statementToken returns a UUIDv7 identifying one executor call.
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time.
func statementToken() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Query returns an empty row set.
func (e *StubExecutor) Query(ctx context.Context, sql string, params map[string]any) ([]map[string]any, error) {
	e.logger.DebugContext(ctx, "stub query",
		"token", statementToken(),
		"sql", sql,
		"params", len(params))
	return nil, nil
}

// Count returns zero.
func (e *StubExecutor) Count(ctx context.Context, sql string, params map[string]any) (int64, error) {
	e.logger.DebugContext(ctx, "stub count",
		"token", statementToken(),
		"sql", sql,
		"params", len(params))
	return 0, nil
}

// Exists returns false.
func (e *StubExecutor) Exists(ctx context.Context, sql string, params map[string]any) (bool, error) {
	e.logger.DebugContext(ctx, "stub exists",
		"token", statementToken(),
		"sql", sql,
		"params", len(params))
	return false, nil
}
