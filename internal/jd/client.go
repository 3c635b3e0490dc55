// Package jd holds the session state machine around the MyJDownloader
// transport: a connection controller that owns the single live session, a
// one-shot-retry executor for token expiry, and the domain operations
// built on top of both.
package jd

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Timmy93/MyJDProxy/internal/myjd"
)

// Session is the narrow contract the controller needs from the remote
// session capability. Implementations own the credentials and the raw
// token state; the controller only drives the lifecycle.
type Session interface {
	Connect(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	ResolveDevice(ctx context.Context, deviceID string) (Device, error)
}

// Device is the contract for the resolved download agent.
type Device interface {
	AddLinks(ctx context.Context, params myjd.AddLinksParams) error
	QueryDownloadPackages(ctx context.Context) ([]myjd.PackageRecord, error)
	QueryLinkgrabberPackages(ctx context.Context) ([]myjd.CrawledPackage, error)
	StartDownloads(ctx context.Context) error
	PauseDownloads(ctx context.Context, pause bool) error
	ForceDownload(ctx context.Context, packageIDs []int64) error
	SetEnabled(ctx context.Context, enabled bool, packageIDs []int64) error
}

// Config carries the controller's immutable settings.
type Config struct {
	DeviceID          string
	BasePath          string
	AllowedCategories []string
	Logger            zerolog.Logger
}

// Client owns the single live session against MyJDownloader. All
// connect/disconnect/refresh transitions are serialized under mu so that
// concurrent operations queue behind one in-progress refresh instead of
// re-authenticating independently.
type Client struct {
	session           Session
	deviceID          string
	basePath          string
	allowedCategories []string
	log               zerolog.Logger

	mu        sync.Mutex
	device    Device
	connected bool
	// gen counts successful session establishments. An operation records
	// the generation it ran under; a refresh request for an older
	// generation is already satisfied.
	gen uint64
}

func New(session Session, cfg Config) *Client {
	return &Client{
		session:           session,
		deviceID:          cfg.DeviceID,
		basePath:          cfg.BasePath,
		allowedCategories: cfg.AllowedCategories,
		log:               cfg.Logger,
	}
}

// Connect authenticates and resolves the configured device. Calling it
// while already connected is a no-op success.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.connected && c.device != nil {
		return nil
	}

	if err := c.session.Connect(ctx); err != nil {
		c.log.Error().Err(err).Msg("failed to connect to MyJDownloader")
		return &ConnectionError{Err: err}
	}

	device, err := c.session.ResolveDevice(ctx, c.deviceID)
	if err != nil {
		c.log.Error().Err(err).Str("device_id", c.deviceID).Msg("failed to resolve device")
		return &ConnectionError{Err: err}
	}

	c.device = device
	c.connected = true
	c.gen++
	c.log.Info().Str("device_id", c.deviceID).Msg("connected to MyJDownloader")
	return nil
}

// Disconnect tears the session down. It is best-effort: transport failures
// are logged and the local state is cleared regardless.
func (c *Client) Disconnect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.session.Disconnect(ctx); err != nil {
		c.log.Warn().Err(err).Msg("error during disconnection")
	}
	c.device = nil
	c.connected = false
	c.log.Info().Msg("disconnected from MyJDownloader")
}

// IsConnected reports whether a session and device handle are live.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && c.device != nil
}

// acquireDevice returns the current device handle, connecting lazily if
// needed, together with the session generation it belongs to.
func (c *Client) acquireDevice(ctx context.Context) (Device, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(ctx); err != nil {
		return nil, 0, err
	}
	return c.device, c.gen, nil
}

// refreshConnection re-establishes the session after a token rejection
// observed at generation observedGen. The cheap reconnect (token renewal)
// is tried first, then a full re-authentication. It never returns an
// error; the caller retries the operation only on a true result.
//
// If another caller already refreshed past observedGen the session is
// fresh and no remote call is made.
func (c *Client) refreshConnection(ctx context.Context, observedGen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected && c.gen != observedGen {
		return true
	}

	if err := c.session.Reconnect(ctx); err == nil {
		device, err := c.session.ResolveDevice(ctx, c.deviceID)
		if err == nil {
			c.device = device
			c.connected = true
			c.gen++
			c.log.Info().Msg("session tokens renewed")
			return true
		}
		c.log.Warn().Err(err).Msg("device resolution failed after token renewal")
	} else {
		c.log.Warn().Msg("token renewal failed, falling back to full reconnect")
	}

	c.device = nil
	c.connected = false
	if err := c.connectLocked(ctx); err != nil {
		c.log.Error().Err(err).Msg("full reconnect failed")
		return false
	}
	return true
}
