// Package notify delivers new-species notifications through external push
// services. Delivery is asynchronous and best effort: a failed or slow
// notification never blocks or fails the ingestion pipeline.
package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/birdtag/birdtag-go/internal/conf"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/logging"
)

var logger = func() *slog.Logger {
	if l := logging.ForService("notify"); l != nil {
		return l
	}
	return logging.NewDiscardLogger("notify")
}()

// Notification is a new-species announcement for delivery.
type Notification struct {
	Title   string
	Message string
}

// Provider is an external push delivery backend. Providers must be safe
// for concurrent use.
type Provider interface {
	GetName() string
	ValidateConfig() error
	Send(ctx context.Context, n *Notification) error
}

// ShoutrrrProvider sends via nicholas-fedor/shoutrrr using a single sender
// built from one or more service URLs.
type ShoutrrrProvider struct {
	urls    []string
	sender  *router.ServiceRouter
	timeout time.Duration
}

// NewShoutrrrProvider creates a provider from shoutrrr service URLs.
func NewShoutrrrProvider(urls []string, timeout time.Duration) *ShoutrrrProvider {
	return &ShoutrrrProvider{
		urls:    slices.Clone(urls),
		timeout: timeout,
	}
}

func (s *ShoutrrrProvider) GetName() string { return "shoutrrr" }

// ValidateConfig builds the sender, validating all configured URLs.
func (s *ShoutrrrProvider) ValidateConfig() error {
	if len(s.urls) == 0 {
		return errors.Newf("at least one notification URL is required").
			Category(errors.CategoryConfiguration).
			Component("notify").
			Build()
	}
	sender, err := shoutrrr.CreateSender(s.urls...)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Component("notify").
			Build()
	}
	s.sender = sender
	if s.timeout > 0 {
		s.sender.Timeout = s.timeout
	}
	s.sender.SetLogger(log.New(io.Discard, "", 0))
	return nil
}

func (s *ShoutrrrProvider) Send(ctx context.Context, n *Notification) error {
	if s.sender == nil {
		return errors.Newf("shoutrrr sender not initialized").
			Category(errors.CategoryNotification).
			Component("notify").
			Build()
	}
	_ = ctx // the router applies its own timeout

	params := stypes.Params{}
	if n.Title != "" {
		params.SetTitle(n.Title)
	}
	for _, err := range s.sender.Send(n.Message, &params) {
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryNotification).
				Component("notify").
				Build()
		}
	}
	return nil
}

// Service queues notifications and delivers them from a single worker
// goroutine so callers never wait on the network.
type Service struct {
	provider Provider
	queue    chan *Notification
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
}

const queueDepth = 64

// NewService starts a delivery worker backed by the given provider.
// A nil provider yields a service that silently drops notifications,
// which keeps callers free of enabled-or-not branching.
func NewService(provider Provider) *Service {
	s := &Service{
		provider: provider,
		queue:    make(chan *Notification, queueDepth),
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)
	return s
}

// NewServiceFromSettings builds a service from app settings. Disabled or
// misconfigured notifications degrade to a drop-everything service.
func NewServiceFromSettings(settings *conf.Settings) *Service {
	if settings == nil || !settings.Notify.Enabled {
		return NewService(nil)
	}
	provider := NewShoutrrrProvider(settings.Notify.URLs, 10*time.Second)
	if err := provider.ValidateConfig(); err != nil {
		logger.Error("Notification provider config invalid, notifications disabled",
			"error", err)
		return NewService(nil)
	}
	return NewService(provider)
}

func (s *Service) run(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-s.queue:
			s.deliver(ctx, n)
		}
	}
}

func (s *Service) deliver(ctx context.Context, n *Notification) {
	if s.provider == nil {
		return
	}
	if err := s.provider.Send(ctx, n); err != nil {
		logger.Error("Notification delivery failed",
			"provider", s.provider.GetName(),
			"title", n.Title,
			"error", err)
		return
	}
	logger.Info("Notification delivered",
		"provider", s.provider.GetName(),
		"title", n.Title)
}

// NotifyNewSpecies announces species not previously seen in the catalog.
// The species list is sorted for a stable message. Non-blocking: if the
// queue is full the notification is dropped with a warning.
func (s *Service) NotifyNewSpecies(species []string, fileURL string) {
	if len(species) == 0 {
		return
	}
	sorted := slices.Clone(species)
	slices.Sort(sorted)
	speciesStr := strings.Join(sorted, ", ")

	n := &Notification{
		Title: fmt.Sprintf("New Bird Detection Updated in the System: %s", speciesStr),
		Message: fmt.Sprintf(
			"A new file has been uploaded containing the following bird species: %s. File: %s",
			speciesStr, fileURL),
	}

	select {
	case s.queue <- n:
	default:
		logger.Warn("Notification queue full, dropping", "title", n.Title)
	}
}

// Shutdown stops the worker and waits for it to exit. Queued but
// undelivered notifications are dropped.
func (s *Service) Shutdown() {
	s.once.Do(s.cancel)
	s.wg.Wait()
}
