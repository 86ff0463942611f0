// Package notify abstracts outbound notifications. The service never
// formats message bodies; it picks a template tag and hands over
// structured data for the delivery side to render.
package notify

import (
	"context"
	"log"
)

const (
	TemplateVerificationCode = "verification-code"
	TemplateBookingConfirmed = "booking-confirmed"
)

// Notifier delivers one notification to an identity (email address).
type Notifier interface {
	Send(ctx context.Context, identity, template string, data map[string]any) error
}

// Log writes notifications to the process log. Default when no broker is
// configured; also handy in tests and local development.
type Log struct {
	logger *log.Logger
}

func NewLog(logger *log.Logger) *Log {
	if logger == nil {
		logger = log.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Send(_ context.Context, identity, template string, data map[string]any) error {
	l.logger.Printf("notify identity=%s template=%s data=%v", identity, template, data)
	return nil
}
