package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/irfndi/exohunter-go/pkg/agents"
	"github.com/irfndi/exohunter-go/pkg/lightcurve"
	"github.com/irfndi/exohunter-go/pkg/nasa"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyDetection(ctx context.Context, report *lightcurve.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Predict(ctx context.Context, in agents.ExoplanetInput) (*agents.Prediction, error) {
	args := m.Called(ctx, in)
	if p := args.Get(0); p != nil {
		return p.(*agents.Prediction), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockArchiveClient struct {
	mock.Mock
}

func (m *MockArchiveClient) LookupPlanet(ctx context.Context, name string) (*nasa.LookupResult, error) {
	args := m.Called(ctx, name)
	if r := args.Get(0); r != nil {
		return r.(*nasa.LookupResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	args := m.Called(ctx, params)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// transitUpload is a flat 1000 sample curve with single-sample 2% dips at
// t = 1.0, 4.5 and 8.0 days.
func transitUpload() string {
	var b strings.Builder
	b.WriteString("time,flux\n")
	for i := 0; i < 1000; i++ {
		flux := 1.0
		if i == 100 || i == 450 || i == 800 {
			flux = 0.98
		}
		fmt.Fprintf(&b, "%.2f,%.6f\n", float64(i)*0.01, flux)
	}
	return b.String()
}

// flatUpload has enough rows to parse but no dips.
func flatUpload(rows int) string {
	var b strings.Builder
	b.WriteString("time flux\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%.2f 1.000000\n", float64(i)*0.01)
	}
	return b.String()
}
