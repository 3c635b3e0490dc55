// Package myjd implements a compact client for the MyJDownloader remote
// API: session establishment against the central service and command
// dispatch to a registered device. Request payload encryption of the
// official protocol is not implemented; requests are signed plain JSON.
package myjd

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	BaseURL         = "https://api.jdownloader.org"
	APIVersion      = 1
	RateLimitPerMin = 120
)

var (
	// ErrTokenInvalid signals that the service rejected the current session
	// token as expired or revoked. Callers are expected to reconnect.
	ErrTokenInvalid = errors.New("myjd: session token invalid")

	// ErrDeviceNotFound signals that the configured device id is not among
	// the devices registered to the account.
	ErrDeviceNotFound = errors.New("myjd: device not found")
)

// APIError is a non-token failure reported by the remote service.
type APIError struct {
	StatusCode int
	Src        string `json:"src"`
	Type       string `json:"type"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("myjd: API error (status %d): %s/%s", e.StatusCode, e.Src, e.Type)
}

// Credentials identify a MyJDownloader account and the target device.
type Credentials struct {
	Username string
	Password string
	AppKey   string
	DeviceID string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	rid        atomic.Int64
}

func NewClient() *Client {
	c := &Client{
		baseURL: BaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/RateLimitPerMin), 5),
	}
	// Request ids must increase across sessions.
	c.rid.Store(time.Now().UnixMilli())
	return c
}

func (c *Client) nextRID() int64 {
	return c.rid.Add(1)
}

// loginSecret and deviceSecret derive the account keys the service expects
// for server-side and device-side calls respectively.
func loginSecret(username, password string) []byte {
	sum := sha256.Sum256([]byte(strings.ToLower(username) + password + "server"))
	return sum[:]
}

func deviceSecret(username, password string) []byte {
	sum := sha256.Sum256([]byte(strings.ToLower(username) + password + "device"))
	return sum[:]
}

// sessionKey folds the freshly issued session token into an account key.
func sessionKey(secret []byte, sessionToken string) []byte {
	h := sha256.New()
	h.Write(secret)
	h.Write([]byte(sessionToken))
	return h.Sum(nil)
}

func sign(key []byte, payload string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// callServer issues a signed POST against a /my/* endpoint. The signature
// covers the full query string, which is how the service validates it.
func (c *Client) callServer(ctx context.Context, path string, key []byte, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	signed := path + "&signature=" + sign(key, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+signed, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiErrorFromResponse(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

type deviceRequest struct {
	URL    string        `json:"url"`
	Params []interface{} `json:"params,omitempty"`
	RID    int64         `json:"rid"`
	APIVer int           `json:"apiVer"`
}

// callDevice issues a command to a device through the session tunnel
// endpoint /t_<sessiontoken>_<deviceid><action>.
func (c *Client) callDevice(ctx context.Context, sess *Session, deviceID, action string, params []interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := json.Marshal(deviceRequest{
		URL:    action,
		Params: params,
		RID:    c.nextRID(),
		APIVer: APIVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/t_%s_%s%s", c.baseURL, sess.Token, deviceID, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", sign(sess.deviceKey, string(body)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiErrorFromResponse(resp)
	}

	if result != nil {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// apiErrorFromResponse maps an error payload onto the package error kinds.
// TOKEN_INVALID and OUTDATED both mean the session is no longer usable, as
// does a bare 403.
func apiErrorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	_ = json.Unmarshal(raw, apiErr)

	switch apiErr.Type {
	case "TOKEN_INVALID", "OUTDATED":
		return fmt.Errorf("%w (status %d)", ErrTokenInvalid, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w (status %d)", ErrTokenInvalid, resp.StatusCode)
	}
	if apiErr.Type == "" {
		apiErr.Type = strings.TrimSpace(string(raw))
	}
	return apiErr
}
