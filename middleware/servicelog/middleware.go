// Package servicelog logs every request-reply service call with log/slog.
package servicelog

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Middleware implements structured service call logging as a mono.MiddlewareModule.
type Middleware struct {
	name   string
	config Config
	logger *slog.Logger
	now    func() time.Time
}

// Compile-time interface checks
var _ mono.Module = (*Middleware)(nil)
var _ mono.MiddlewareModule = (*Middleware)(nil)

// New creates a new service logging middleware.
func New(opts ...Option) *Middleware {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Middleware{
		name:   "service-log",
		config: config,
		logger: config.Logger,
		now:    time.Now,
	}
}

// Name returns the middleware name.
func (m *Middleware) Name() string {
	return m.name
}

// Start starts the middleware.
func (m *Middleware) Start(_ context.Context) error {
	m.logger.Info("Service logging middleware started", "slow_threshold", m.config.SlowThreshold)
	return nil
}

// Stop stops the middleware.
func (m *Middleware) Stop(_ context.Context) error {
	m.logger.Info("Service logging middleware stopped")
	return nil
}

// OnModuleLifecycle passes through module lifecycle events unchanged.
func (m *Middleware) OnModuleLifecycle(
	_ context.Context,
	event types.ModuleLifecycleEvent,
) types.ModuleLifecycleEvent {
	return event
}

// OnServiceRegistration wraps request-reply handlers with call logging.
func (m *Middleware) OnServiceRegistration(
	_ context.Context,
	reg types.ServiceRegistration,
) types.ServiceRegistration {
	if reg.Type != types.ServiceTypeRequestReply || reg.RequestHandler == nil {
		return reg
	}
	if m.config.Skip[reg.Name] {
		return reg
	}

	serviceName := reg.Name
	original := reg.RequestHandler

	m.logger.Debug("Wrapping service with call logging", "service", serviceName)

	reg.RequestHandler = func(ctx context.Context, req *types.Msg) ([]byte, error) {
		start := m.now()
		resp, err := original(ctx, req)
		elapsed := m.now().Sub(start)

		attrs := []any{
			"service", serviceName,
			"duration", elapsed,
			"response_bytes", len(resp),
		}
		if id := m.requestID(req); id != "" {
			attrs = append(attrs, "request_id", id)
		}

		switch {
		case err != nil:
			m.logger.Error("Service call failed", append(attrs, "error", err)...)
		case m.config.SlowThreshold > 0 && elapsed > m.config.SlowThreshold:
			m.logger.Warn("Slow service call", attrs...)
		default:
			m.logger.Debug("Service call handled", attrs...)
		}

		return resp, err
	}

	return reg
}

// OnConfigurationChange passes through configuration changes unchanged.
func (m *Middleware) OnConfigurationChange(
	_ context.Context,
	event types.ConfigurationEvent,
) types.ConfigurationEvent {
	return event
}

// OnOutgoingMessage passes through outgoing messages unchanged.
func (m *Middleware) OnOutgoingMessage(
	octx types.OutgoingMessageContext,
) types.OutgoingMessageContext {
	return octx
}

// OnEventConsumerRegistration passes through event consumer registrations unchanged.
func (m *Middleware) OnEventConsumerRegistration(
	_ context.Context,
	entry types.EventConsumerEntry,
) types.EventConsumerEntry {
	return entry
}

// OnEventStreamConsumerRegistration passes through event stream consumer registrations unchanged.
func (m *Middleware) OnEventStreamConsumerRegistration(
	_ context.Context,
	entry types.EventStreamConsumerEntry,
) types.EventStreamConsumerEntry {
	return entry
}

const maxRequestIDLength = 128

func (m *Middleware) requestID(req *types.Msg) string {
	if req == nil || req.Header == nil {
		return ""
	}
	values, ok := req.Header[m.config.RequestIDHeader]
	if !ok || len(values) == 0 {
		return ""
	}
	id := values[0]
	if len(id) > maxRequestIDLength {
		id = id[:maxRequestIDLength]
	}
	return id
}
