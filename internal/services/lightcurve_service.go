package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/exohunter-go/internal/config"
	"github.com/irfndi/exohunter-go/internal/database"
	"github.com/irfndi/exohunter-go/internal/telemetry"
	"github.com/irfndi/exohunter-go/internal/utils"
	"github.com/irfndi/exohunter-go/pkg/agents"
	"github.com/irfndi/exohunter-go/pkg/lightcurve"
)

// Notifier is told about every analysis that found a periodic signal.
type Notifier interface {
	NotifyDetection(ctx context.Context, report *lightcurve.Report) error
}

// Classifier scores a detection with the external classifier.
type Classifier interface {
	Predict(ctx context.Context, in agents.ExoplanetInput) (*agents.Prediction, error)
}

// LightCurveService synthesizes, folds and analyses light curves.
type LightCurveService struct {
	cfg        config.LightCurveConfig
	store      ReportStore
	notifier   Notifier
	classifier Classifier
	tracer     *telemetry.BusinessTracer
	logger     *logrus.Logger
	newID      func() string
}

// NewLightCurveService wires the service. store, notifier and classifier
// are optional.
func NewLightCurveService(cfg config.LightCurveConfig, store ReportStore, notifier Notifier, classifier Classifier, logger *logrus.Logger) *LightCurveService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LightCurveService{
		cfg:        cfg,
		store:      store,
		notifier:   notifier,
		classifier: classifier,
		tracer:     telemetry.NewBusinessTracer(),
		logger:     logger,
		newID:      func() string { return uuid.New().String() },
	}
}

// Simulate produces a synthetic transit light curve. A zero seed draws one
// from the clock.
func (s *LightCurveService) Simulate(ctx context.Context, params lightcurve.Params, seed uint64) (*lightcurve.LightCurveData, error) {
	if err := params.Validate(s.cfg.MaxSamples); err != nil {
		return nil, utils.NewValidationError("params", err.Error())
	}

	_, span := s.tracer.TraceSynthesis(ctx, params.StarName, params.Period, params.TransitCount)
	defer span.End()

	start := time.Now()
	data := lightcurve.Synthesize(params, lightcurve.NewRand(seed))
	s.tracer.RecordSynthesis(span, data.Len(), time.Since(start))

	s.logger.WithFields(logrus.Fields{
		"star":    params.StarName,
		"period":  params.Period,
		"samples": data.Len(),
	}).Debug("Synthesized light curve")
	return data, nil
}

// CSVExport is a rendered download.
type CSVExport struct {
	FileName string
	Content  string
}

// ExportCSV simulates a curve and renders it in the download format.
func (s *LightCurveService) ExportCSV(ctx context.Context, params lightcurve.Params, seed uint64) (*CSVExport, error) {
	data, err := s.Simulate(ctx, params, seed)
	if err != nil {
		return nil, err
	}
	content, err := data.CSV(params.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to render light curve CSV: %w", err)
	}
	return &CSVExport{FileName: lightcurve.ExportFileName(params.StarName), Content: content}, nil
}

// FoldResult is a phase-folded curve with an optional smoothed overlay.
type FoldResult struct {
	Period   float64                    `json:"period"`
	Window   int                        `json:"smooth_window"`
	Points   []lightcurve.FoldedPoint   `json:"points"`
	Smoothed []lightcurve.SmoothedPoint `json:"smoothed"`
	Metadata lightcurve.Metadata        `json:"metadata"`
}

// Fold simulates a curve and folds it on its own period. window 0 uses the
// configured smoothing window, 1 disables smoothing.
func (s *LightCurveService) Fold(ctx context.Context, params lightcurve.Params, seed uint64, window int) (*FoldResult, error) {
	if window < 0 {
		return nil, utils.NewValidationErrorf("smooth_window", "smooth_window must be non-negative, got %d", window)
	}
	if window == 0 {
		window = s.cfg.SmoothWindow
	}

	data, err := s.Simulate(ctx, params, seed)
	if err != nil {
		return nil, err
	}
	points, err := data.PhaseFold(params.Period)
	if err != nil {
		return nil, utils.NewValidationError("period", err.Error())
	}

	return &FoldResult{
		Period:   params.Period,
		Window:   window,
		Points:   points,
		Smoothed: lightcurve.Smooth(points, window),
		Metadata: data.Metadata,
	}, nil
}

// AnalyzeRequest is one uploaded light curve.
type AnalyzeRequest struct {
	FileName string
	Content  io.Reader
	Options  lightcurve.AnalysisOptions
	// UserID owns the stored report; empty for anonymous uploads.
	UserID string
	// Mission, when set, asks the classifier to score the detection.
	Mission string
}

// AnalysisResult is the report plus the optional classifier verdict.
type AnalysisResult struct {
	*lightcurve.Report
	Classification      *agents.Prediction `json:"classification,omitempty"`
	ClassificationError string             `json:"classification_error,omitempty"`
	Persisted           bool               `json:"persisted"`
}

// Analyze parses an upload, searches it for transits and stores the report.
// Storage, notification and classification failures are logged and do not
// fail the analysis.
func (s *LightCurveService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error) {
	if strings.TrimSpace(req.FileName) == "" || req.Content == nil {
		return nil, utils.NewValidationError("file", "No file provided")
	}
	opts, err := req.Options.Normalize()
	if err != nil {
		return nil, utils.NewValidationError("options", err.Error())
	}
	mission := strings.ToUpper(strings.TrimSpace(req.Mission))
	if err := (agents.ExoplanetInput{Mission: mission}).Validate(); err != nil {
		return nil, err
	}

	series, err := lightcurve.ParseUpload(req.FileName, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", req.FileName, err)
	}

	uploadID := s.newID()
	detectCtx, span := s.tracer.TraceDetection(ctx, uploadID, req.FileName, series.Len())
	start := time.Now()
	detection, err := lightcurve.Detect(series.Time, series.Flux)
	if err != nil {
		telemetry.RecordError(span, err)
		span.End()
		return nil, fmt.Errorf("transit detection failed: %w", err)
	}

	report := lightcurve.BuildReport(uploadID, req.FileName, series, detection, opts)
	metrics := telemetry.DetectionMetrics{
		Detected:      report.Detected(),
		Candidates:    len(report.TransitCandidates),
		DetectionTime: time.Since(start),
	}
	if detection != nil {
		metrics.Period = detection.Period
		metrics.Depth = detection.Depth
		metrics.Significance = report.DetectedPeriods[0].Significance
	}
	s.tracer.RecordDetection(span, metrics)
	span.End()

	log := s.logger.WithFields(logrus.Fields{
		"upload_id":   uploadID,
		"file_name":   req.FileName,
		"data_points": report.DataPoints,
		"detected":    report.Detected(),
	})
	log.Info("Light curve analysed")

	result := &AnalysisResult{Report: report}
	if s.store != nil {
		if err := s.store.Save(detectCtx, database.NewReportRecord(req.UserID, report)); err != nil {
			log.WithError(err).Warn("Failed to persist analysis report")
		} else {
			result.Persisted = true
		}
	}

	if s.notifier != nil && report.Detected() {
		if err := s.notifier.NotifyDetection(detectCtx, report); err != nil {
			log.WithError(err).Warn("Failed to send detection notification")
		}
	}

	if mission != "" && detection != nil {
		s.classify(detectCtx, result, agents.InputFromDetection(detection, mission), log)
	}
	return result, nil
}

func (s *LightCurveService) classify(ctx context.Context, result *AnalysisResult, in agents.ExoplanetInput, log *logrus.Entry) {
	if s.classifier == nil {
		result.ClassificationError = "classifier is not configured"
		return
	}
	prediction, err := s.classifier.Predict(ctx, in)
	if err != nil {
		log.WithError(err).Warn("Classifier request failed")
		result.ClassificationError = err.Error()
		return
	}
	result.Classification = prediction
}

// GetReport loads a stored report by id.
func (s *LightCurveService) GetReport(ctx context.Context, id string) (*database.ReportRecord, error) {
	if err := validateReportID(id); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, database.ErrReportNotFound
	}
	return s.store.Get(ctx, id)
}

// ListReports returns the caller's reports, newest first.
func (s *LightCurveService) ListReports(ctx context.Context, userID string, limit int) ([]database.ReportRecord, error) {
	if userID == "" {
		return nil, utils.NewValidationError("user_id", "user id is required")
	}
	if s.store == nil {
		return []database.ReportRecord{}, nil
	}
	return s.store.ListByUser(ctx, userID, limit)
}

// DeleteReport removes a stored report.
func (s *LightCurveService) DeleteReport(ctx context.Context, id string) error {
	if err := validateReportID(id); err != nil {
		return err
	}
	if s.store == nil {
		return database.ErrReportNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("report_id", id).Info("Deleted analysis report")
	return nil
}

func validateReportID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return utils.NewValidationError("id", "Invalid report id")
	}
	return nil
}
