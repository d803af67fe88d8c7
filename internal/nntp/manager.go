package nntp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/datallboy/gospool/internal/app"
	"github.com/datallboy/gospool/internal/domain"
	"github.com/datallboy/gospool/internal/infra/logger"
)

const fetchRetryCount = 3

var retryBackoff = 200 * time.Millisecond

type managedProvider struct {
	domain.Provider
	semaphore chan struct{}
}

// Manager fetches articles from the configured peers, most preferred first.
type Manager struct {
	logger    *logger.Logger
	providers []*managedProvider
}

var _ app.NNTPManager = (*Manager)(nil)

func NewManager(ctx *app.Context) (*Manager, error) {
	var providers []domain.Provider

	for _, cfg := range ctx.Config.Servers {
		p := NewNNTPProvider(cfg)

		ctx.Logger.Info("Validating provider: %s", p.ID())
		if err := p.TestConnection(); err != nil {
			return nil, fmt.Errorf("connection test failed for %s: %w", p.ID(), err)
		}
		providers = append(providers, p)
	}

	return newManager(ctx.Logger, providers...), nil
}

func newManager(log *logger.Logger, providers ...domain.Provider) *Manager {
	managed := make([]*managedProvider, 0, len(providers))
	for _, p := range providers {
		managed = append(managed, &managedProvider{
			Provider:  p,
			semaphore: make(chan struct{}, max(p.MaxConnection(), 1)),
		})
	}

	// Sort providers by priority (0 = highest)
	sort.SliceStable(managed, func(i, j int) bool {
		return managed[i].Priority() < managed[j].Priority()
	})
	return &Manager{logger: log, providers: managed}
}

// Fetch returns the full article for msgID from the first peer that has
// it. Busy peers and transient failures are retried a few times.
func (m *Manager) Fetch(ctx context.Context, msgID string) (io.Reader, error) {
	if len(m.providers) == 0 {
		return nil, errors.New("no upstream servers configured")
	}

	missing := make(map[string]bool)

	var err error
	for attempt := 0; attempt < fetchRetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
			m.logger.Debug("Article %s: retry %d after %v", msgID, attempt, err)
		}

		var r io.Reader
		r, err = m.fetchOnce(ctx, msgID, missing)
		if err == nil || errors.Is(err, domain.ErrArticleNotFound) {
			return r, err
		}
	}
	return nil, err
}

func (m *Manager) fetchOnce(ctx context.Context, msgID string, missing map[string]bool) (io.Reader, error) {
	// Fast fail if user already cancelled
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lastErr error

	for _, mp := range m.providers {
		// Skip if this provider already reported 430 for this article
		if missing[mp.ID()] {
			continue
		}

		if len(missing) > 0 {
			m.logger.Debug("[Failover] Article %s missing on %d providers, trying %s (Priority %d)",
				msgID, len(missing), mp.ID(), mp.Priority())
		}

		select {
		case mp.semaphore <- struct{}{}:
		default:
			// Provider is at MaxConnections, skip for now
			continue
		}

		m.logger.Debug("Article %s: attempting fetch from %s", msgID, mp.ID())
		r, err := mp.Fetch(ctx, msgID)
		<-mp.semaphore

		if err == nil {
			return r, nil
		}
		if errors.Is(err, domain.ErrArticleNotFound) {
			m.logger.Debug("Provider %s: 430 for %s", mp.ID(), msgID)
			missing[mp.ID()] = true
			continue
		}

		// network/auth error: keep looking but remember it
		m.logger.Debug("Failover: %s error: %v", mp.ID(), err)
		lastErr = err
	}

	if len(missing) == len(m.providers) {
		return nil, domain.ErrArticleNotFound
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, domain.ErrProviderBusy
}

// TotalCapacity returns the maximum number of concurrent connections
// allowed across all configured providers.
func (m *Manager) TotalCapacity() int {
	total := 0
	for _, mp := range m.providers {
		total += cap(mp.semaphore)
	}
	return total
}

func (m *Manager) Close() error {
	var errs []error
	for _, mp := range m.providers {
		errs = append(errs, mp.Close())
	}
	return errors.Join(errs...)
}
