package myjd

import (
	"context"
	"fmt"
	"net/url"
)

// Session holds the tokens issued by a successful connect. The derived
// keys sign subsequent server and device calls.
type Session struct {
	Token       string
	RegainToken string

	serverKey []byte
	deviceKey []byte
}

type connectResponse struct {
	SessionToken string `json:"sessiontoken"`
	RegainToken  string `json:"regaintoken"`
}

// DeviceInfo is one entry of the account's device list.
type DeviceInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// Connect authenticates against the central service and returns a fresh
// session.
func (c *Client) Connect(ctx context.Context, creds Credentials) (*Session, error) {
	secret := loginSecret(creds.Username, creds.Password)
	path := fmt.Sprintf("/my/connect?email=%s&appkey=%s&rid=%d",
		url.QueryEscape(creds.Username), url.QueryEscape(creds.AppKey), c.nextRID())

	var result connectResponse
	if err := c.callServer(ctx, path, secret, &result); err != nil {
		return nil, fmt.Errorf("connect failed: %w", err)
	}

	return c.newSession(creds, result), nil
}

// Reconnect renews the session tokens using the regain token. This is the
// cheap recovery path; it fails when the session has been fully revoked.
func (c *Client) Reconnect(ctx context.Context, creds Credentials, sess *Session) (*Session, error) {
	path := fmt.Sprintf("/my/reconnect?appkey=%s&sessiontoken=%s&regaintoken=%s&rid=%d",
		url.QueryEscape(creds.AppKey), url.QueryEscape(sess.Token), url.QueryEscape(sess.RegainToken), c.nextRID())

	var result connectResponse
	if err := c.callServer(ctx, path, sess.serverKey, &result); err != nil {
		return nil, fmt.Errorf("reconnect failed: %w", err)
	}

	return c.newSession(creds, result), nil
}

// Disconnect invalidates the session on the service side.
func (c *Client) Disconnect(ctx context.Context, sess *Session) error {
	path := fmt.Sprintf("/my/disconnect?sessiontoken=%s&rid=%d",
		url.QueryEscape(sess.Token), c.nextRID())

	if err := c.callServer(ctx, path, sess.serverKey, nil); err != nil {
		return fmt.Errorf("disconnect failed: %w", err)
	}
	return nil
}

// ListDevices returns the devices registered to the account.
func (c *Client) ListDevices(ctx context.Context, sess *Session) ([]DeviceInfo, error) {
	path := fmt.Sprintf("/my/listdevices?sessiontoken=%s&rid=%d",
		url.QueryEscape(sess.Token), c.nextRID())

	var result struct {
		List []DeviceInfo `json:"list"`
	}
	if err := c.callServer(ctx, path, sess.serverKey, &result); err != nil {
		return nil, fmt.Errorf("listdevices failed: %w", err)
	}
	return result.List, nil
}

// ResolveDevice looks up deviceID in the account's device list and binds a
// Device handle to it.
func (c *Client) ResolveDevice(ctx context.Context, sess *Session, deviceID string) (*Device, error) {
	devices, err := c.ListDevices(ctx, sess)
	if err != nil {
		return nil, err
	}

	for _, d := range devices {
		if d.ID == deviceID {
			return &Device{client: c, sess: sess, id: d.ID, name: d.Name}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
}

func (c *Client) newSession(creds Credentials, result connectResponse) *Session {
	return &Session{
		Token:       result.SessionToken,
		RegainToken: result.RegainToken,
		serverKey:   sessionKey(loginSecret(creds.Username, creds.Password), result.SessionToken),
		deviceKey:   sessionKey(deviceSecret(creds.Username, creds.Password), result.SessionToken),
	}
}
