// Package server exposes the dated values store and editor over HTTP/JSON and
// serves gRPC health checks.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/authz"
	"github.com/alfredjeanlab/datedvalues/internal/config"
	"github.com/alfredjeanlab/datedvalues/internal/events"
	"github.com/alfredjeanlab/datedvalues/internal/forms"
	"github.com/alfredjeanlab/datedvalues/internal/model"
	"github.com/alfredjeanlab/datedvalues/internal/store"
	dvsync "github.com/alfredjeanlab/datedvalues/internal/sync"
)

// Options configures request identity and access for the HTTP handler.
type Options struct {
	// AuthToken, when set, authenticates "Authorization: Bearer <token>"
	// requests as the staff user "api".
	AuthToken string
	// TrustProxyHeaders accepts X-Forwarded-User and X-Forwarded-Groups from
	// an authenticating proxy.
	TrustProxyHeaders bool
	// LoginURL, when set, is where denied requests are redirected.
	LoginURL string
	// Access decides who may use the API. Nil means staff only.
	Access authz.AccessFunc
	// SyncStatus, when set, is reported by the health endpoint.
	SyncStatus func() dvsync.Status
}

// Server serves the dated values API.
type Server struct {
	store     store.Store
	publisher events.Publisher
	settings  config.Settings
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// New returns a Server backed by the given store and publisher.
func New(s store.Store, p events.Publisher, settings config.Settings, opts Options) *Server {
	if p == nil {
		p = events.NoopPublisher{}
	}
	if opts.Access == nil {
		opts.Access = authz.StaffOnly(settings.Access.StaffGroup)
	}
	return &Server{
		store:     s,
		publisher: p,
		settings:  settings,
		opts:      opts,
		logger:    slog.Default(),
		now:       time.Now,
	}
}

// publish sends an event to the bus. Publishing is best-effort; failures are
// logged but do not fail the request.
func (s *Server) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}

// publishSaved emits one event per form that touched the store.
func (s *Server) publishSaved(ctx context.Context, m *forms.MultiTypeFormset, actor string) {
	for _, fs := range m.Formsets() {
		for _, f := range fs.Forms() {
			switch f.Action() {
			case forms.ActionCreated:
				s.publish(ctx, events.TopicValueCreated, events.ValueCreated{Value: f.Instance(), Actor: actor})
			case forms.ActionUpdated:
				s.publish(ctx, events.TopicValueUpdated, events.ValueUpdated{Value: f.Instance(), Actor: actor})
			case forms.ActionDeleted:
				s.publish(ctx, events.TopicValueDeleted, events.ValueDeleted{
					TypeID:   fs.Type().ID,
					ObjectID: f.ObjectID(),
					Date:     f.Date(),
					ValueID:  f.DeletedID(),
					Actor:    actor,
				})
			}
		}
	}
}

// today returns the current calendar day.
func (s *Server) today() time.Time {
	return model.Day(s.now())
}
