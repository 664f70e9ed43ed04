// Package events publishes call lifecycle events to NATS. Publishing is
// best-effort: the IVR never fails a webhook because an event could not
// be delivered.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event types published on calls.{sid}.{type}.
const (
	CallStarted        = "started"
	ZipcodeSelected    = "zipcode_selected"
	LegislatorSelected = "legislator_selected"
	OfficeTransfer     = "transfer"
	SMSSignup          = "signup"
	VoicemailRecorded  = "voicemail"
)

// Publisher emits call events. A nil Publisher is valid and drops all
// events, which is how the daemon runs when NATS is disabled.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// Connect dials NATS and returns a Publisher.
func Connect(url string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	logger.Info("connected to NATS", zap.String("url", url))
	return &Publisher{nc: nc, logger: logger}, nil
}

// NewPublisher wraps an existing NATS connection.
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{nc: nc, logger: logger}
}

// Publish emits one event for a call. The payload may be nil.
func (p *Publisher) Publish(callSID, eventType string, payload map[string]interface{}) {
	if p == nil || p.nc == nil {
		return
	}

	body := map[string]interface{}{
		"call_sid":  callSID,
		"event":     eventType,
		"timestamp": time.Now().UTC(),
	}
	for k, v := range payload {
		body[k] = v
	}

	data, err := json.Marshal(body)
	if err != nil {
		p.logger.Warn("marshal call event", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("calls.%s.%s", callSID, eventType)
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("publish call event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// Close drains the NATS connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Close()
}
