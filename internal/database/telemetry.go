package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/exohunter-go/internal/telemetry"
)

// TracedDB wraps a DatabasePool and opens a client span per statement.
type TracedDB struct {
	pool   DatabasePool
	tracer trace.Tracer
}

// NewTracedDB creates a new traced database connection
func NewTracedDB(pool DatabasePool) *TracedDB {
	return &TracedDB{
		pool:   pool,
		tracer: telemetry.GetDatabaseTracer(),
	}
}

// operationName returns the leading SQL verb, e.g. "SELECT".
func operationName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}

func (db *TracedDB) start(ctx context.Context, sql string) (context.Context, trace.Span) {
	op := operationName(sql)
	return db.tracer.Start(ctx, "db."+strings.ToLower(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
			attribute.String("db.statement", strings.Join(strings.Fields(sql), " ")),
		),
	)
}

// Query executes a query that returns rows.
func (db *TracedDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := db.start(ctx, sql)
	defer span.End()

	rows, err := db.pool.Query(ctx, sql, args...)
	if err != nil {
		RecordDatabaseError(span, err)
	}
	return rows, err
}

// QueryRow executes a query that returns a single row. Scan errors are not
// visible here, so the span only covers dispatch.
func (db *TracedDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := db.start(ctx, sql)
	defer span.End()
	return db.pool.QueryRow(ctx, sql, args...)
}

// Exec executes a query without returning rows.
func (db *TracedDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := db.start(ctx, sql)
	defer span.End()

	tag, err := db.pool.Exec(ctx, sql, args...)
	if err != nil {
		RecordDatabaseError(span, err)
		return tag, err
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	return tag, nil
}

// RecordDatabaseError marks span failed with err.
func RecordDatabaseError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
