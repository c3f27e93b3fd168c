package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/irfndi/exohunter-go/pkg/lightcurve"
)

// ErrReportNotFound is returned when no report matches the requested id.
var ErrReportNotFound = errors.New("analysis report not found")

// DefaultListLimit bounds ListByUser when the caller passes no limit.
const DefaultListLimit = 50

// DatabasePool defines the interface for database pool operations.
// *pgxpool.Pool, *TracedDB and pgxmock pools all satisfy it.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// ReportRecord is a persisted analysis report.
type ReportRecord struct {
	// ID is the analysis identifier, also the report's upload_id.
	ID string `json:"id" db:"id"`
	// UserID owns the report; empty for anonymous uploads.
	UserID       string             `json:"user_id,omitempty" db:"user_id"`
	FileName     string             `json:"file_name" db:"file_name"`
	Status       string             `json:"status" db:"status"`
	DataPoints   int                `json:"data_points" db:"data_points"`
	Significance float64            `json:"significance" db:"significance"`
	Report       *lightcurve.Report `json:"report" db:"report"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
}

// NewReportRecord derives the indexed columns from report.
func NewReportRecord(userID string, report *lightcurve.Report) *ReportRecord {
	record := &ReportRecord{
		ID:         report.UploadID,
		UserID:     userID,
		FileName:   report.FileName,
		Status:     report.AnalysisStatus,
		DataPoints: report.DataPoints,
		Report:     report,
	}
	if len(report.DetectedPeriods) > 0 {
		record.Significance = report.DetectedPeriods[0].Significance
	}
	return record
}

// ReportRepository handles persistence of analysis reports.
type ReportRepository struct {
	pool DatabasePool
}

// NewReportRepository creates a new report repository.
//
// Parameters:
//
//	pool: The database connection pool.
//
// Returns:
//
//	*ReportRepository: The initialized repository.
func NewReportRepository(pool DatabasePool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS analysis_reports (
		id            UUID PRIMARY KEY,
		user_id       TEXT NOT NULL DEFAULT '',
		file_name     TEXT NOT NULL,
		status        TEXT NOT NULL,
		data_points   INTEGER NOT NULL,
		significance  DOUBLE PRECISION NOT NULL DEFAULT 0,
		report        JSONB NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_reports_user_created
		ON analysis_reports (user_id, created_at DESC);
`

// EnsureSchema creates the analysis_reports table when missing.
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure analysis_reports schema: %w", err)
	}
	return nil
}

// Save inserts record and fills CreatedAt from the database.
//
// Parameters:
//
//	ctx: Context.
//	record: Report to persist; ID must be a UUID.
//
// Returns:
//
//	error: Error if the insert fails.
func (r *ReportRepository) Save(ctx context.Context, record *ReportRecord) error {
	if record == nil || record.Report == nil {
		return errors.New("report record is required")
	}

	body, err := json.Marshal(record.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	query := `
		INSERT INTO analysis_reports (id, user_id, file_name, status, data_points, significance, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err = r.pool.QueryRow(ctx, query,
		record.ID,
		record.UserID,
		record.FileName,
		record.Status,
		record.DataPoints,
		record.Significance,
		body,
	).Scan(&record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis report: %w", err)
	}
	return nil
}

// Get loads one report by id.
func (r *ReportRepository) Get(ctx context.Context, id string) (*ReportRecord, error) {
	query := `
		SELECT id::text, user_id, file_name, status, data_points, significance, report, created_at
		FROM analysis_reports
		WHERE id = $1
	`
	record, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis report: %w", err)
	}
	return record, nil
}

// ListByUser returns the newest reports owned by userID.
func (r *ReportRepository) ListByUser(ctx context.Context, userID string, limit int) ([]ReportRecord, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	query := `
		SELECT id::text, user_id, file_name, status, data_points, significance, report, created_at
		FROM analysis_reports
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis reports: %w", err)
	}
	defer rows.Close()

	records := []ReportRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis report: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis reports: %w", err)
	}
	return records, nil
}

// Delete removes a report. A missing id yields ErrReportNotFound.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM analysis_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*ReportRecord, error) {
	var (
		record ReportRecord
		body   []byte
	)
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.FileName,
		&record.Status,
		&record.DataPoints,
		&record.Significance,
		&body,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Report = &lightcurve.Report{}
	if err := json.Unmarshal(body, record.Report); err != nil {
		return nil, fmt.Errorf("failed to decode report body: %w", err)
	}
	return &record, nil
}
