package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/exohunter-go/internal/config"
	"github.com/irfndi/exohunter-go/internal/telemetry"
	"github.com/irfndi/exohunter-go/pkg/lightcurve"
	"github.com/irfndi/exohunter-go/pkg/nasa"
)

// MessageSender is the part of *bot.Bot the service uses.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// NotificationService posts strong transit candidates to a Telegram chat.
type NotificationService struct {
	sender    MessageSender
	chatID    int64
	threshold float64
	tracer    *telemetry.BusinessTracer
	logger    *logrus.Logger
}

// NewNotificationService builds the Telegram notifier. Without a bot token
// or chat id the service is a no-op.
func NewNotificationService(cfg config.TelegramConfig, threshold float64, logger *logrus.Logger) *NotificationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var sender MessageSender
	if cfg.BotToken != "" {
		telegramBot, err := bot.New(cfg.BotToken, bot.WithSkipGetMe())
		if err != nil {
			logger.WithError(err).Warn("Telegram bot unavailable, detection alerts disabled")
		} else {
			sender = telegramBot
		}
	}
	return NewNotificationServiceWithSender(sender, cfg.ChatID, threshold, logger)
}

// NewNotificationServiceWithSender is NewNotificationService with an
// explicit sender.
func NewNotificationServiceWithSender(sender MessageSender, chatID int64, threshold float64, logger *logrus.Logger) *NotificationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &NotificationService{
		sender:    sender,
		chatID:    chatID,
		threshold: threshold,
		tracer:    telemetry.NewBusinessTracer(),
		logger:    logger,
	}
}

// Enabled reports whether alerts can be delivered.
func (ns *NotificationService) Enabled() bool {
	return ns.sender != nil && ns.chatID != 0
}

// ShouldNotify reports whether report is strong enough to alert on.
func (ns *NotificationService) ShouldNotify(report *lightcurve.Report) bool {
	if report == nil || !report.Detected() {
		return false
	}
	return report.DetectedPeriods[0].Significance >= ns.threshold
}

// NotifyDetection sends a candidate alert when the service is enabled and
// the detection clears the significance threshold.
func (ns *NotificationService) NotifyDetection(ctx context.Context, report *lightcurve.Report) error {
	if !ns.Enabled() || !ns.ShouldNotify(report) {
		return nil
	}

	ctx, span := ns.tracer.TraceNotification(ctx, "transit_candidate", "telegram")
	defer span.End()

	_, err := ns.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    ns.chatID,
		Text:      ns.formatDetectionMessage(report),
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		ns.tracer.RecordNotificationResult(span, false, err)
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	ns.tracer.RecordNotificationResult(span, true, nil)

	ns.logger.WithFields(logrus.Fields{
		"upload_id": report.UploadID,
		"chat_id":   ns.chatID,
	}).Info("Transit candidate alert sent")
	return nil
}

// formatDetectionMessage renders MarkdownV2, so every dynamic value is escaped.
func (ns *NotificationService) formatDetectionMessage(report *lightcurve.Report) string {
	period := report.DetectedPeriods[0]
	num := func(v float64, places int32) string {
		return bot.EscapeMarkdown(decimal.NewFromFloat(v).Round(places).String())
	}

	var b strings.Builder
	b.WriteString("🔭 *Transit Candidate Detected*\n\n")
	fmt.Fprintf(&b, "File: `%s`\n", bot.EscapeMarkdown(report.FileName))
	fmt.Fprintf(&b, "Period: *%s* days\n", num(period.Period, 4))
	fmt.Fprintf(&b, "Depth: *%s* ppm\n", num(period.Depth*1e6, 0))
	fmt.Fprintf(&b, "Significance: *%s*\n", num(period.Significance, 2))
	if len(report.TransitCandidates) > 0 {
		c := report.TransitCandidates[0]
		fmt.Fprintf(&b, "Duration: %s h, epoch %s\n", num(c.Duration, 2), num(c.Epoch, 4))
	}
	fmt.Fprintf(&b, "Data points: %d\n\n", report.DataPoints)
	fmt.Fprintf(&b, "Report id: `%s`\n", bot.EscapeMarkdown(report.UploadID))
	fmt.Fprintf(&b, "Explore: %s", bot.EscapeMarkdown(nasa.JupyterLiteURL))
	return b.String()
}
