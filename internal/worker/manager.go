package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Timmy93/MyJDProxy/internal/jd"
	"github.com/Timmy93/MyJDProxy/internal/models"
)

// Manager periodically queries the download list through the client and
// broadcasts each snapshot to SSE subscribers.
type Manager struct {
	client   *jd.Client
	interval time.Duration
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	subscribers map[chan []models.DownloadPackage]bool
	subMu       sync.RWMutex
}

func NewManager(client *jd.Client, interval time.Duration, log zerolog.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		client:      client,
		interval:    interval,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[chan []models.DownloadPackage]bool),
	}
}

func (m *Manager) Start() {
	m.wg.Add(1)
	go m.poll()
	m.log.Info().Dur("interval", m.interval).Msg("status poller started")
}

func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	m.log.Info().Msg("status poller stopped")
}

func (m *Manager) poll() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.hasSubscribers() || !m.client.IsConnected() {
				continue
			}
			packages, err := m.client.GetDownloadPackages(m.ctx)
			if err != nil {
				m.log.Warn().Err(err).Msg("status poll failed")
				continue
			}
			m.broadcast(packages)
		}
	}
}

func (m *Manager) hasSubscribers() bool {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	return len(m.subscribers) > 0
}

func (m *Manager) broadcast(packages []models.DownloadPackage) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	for sub := range m.subscribers {
		select {
		case sub <- packages:
		default:
			// Skip if subscriber is not ready.
		}
	}
}

// Subscribe returns a channel receiving download list snapshots.
func (m *Manager) Subscribe() chan []models.DownloadPackage {
	ch := make(chan []models.DownloadPackage, 4)
	m.subMu.Lock()
	m.subscribers[ch] = true
	m.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (m *Manager) Unsubscribe(ch chan []models.DownloadPackage) {
	m.subMu.Lock()
	delete(m.subscribers, ch)
	m.subMu.Unlock()
	close(ch)
}
