package jd

import (
	"context"
	"errors"

	"github.com/Timmy93/MyJDProxy/internal/myjd"
)

// remoteSession binds a myjd.Client to one account's credentials and the
// mutable token state. It is only mutated while the controller holds its
// lock, so it needs no synchronization of its own.
type remoteSession struct {
	client *myjd.Client
	creds  myjd.Credentials
	sess   *myjd.Session
}

// NewRemoteSession wraps the MyJDownloader transport in the Session
// contract the controller consumes.
func NewRemoteSession(client *myjd.Client, creds myjd.Credentials) Session {
	return &remoteSession{client: client, creds: creds}
}

func (r *remoteSession) Connect(ctx context.Context) error {
	sess, err := r.client.Connect(ctx, r.creds)
	if err != nil {
		return err
	}
	r.sess = sess
	return nil
}

func (r *remoteSession) Reconnect(ctx context.Context) error {
	if r.sess == nil {
		return errors.New("no session to renew")
	}
	sess, err := r.client.Reconnect(ctx, r.creds, r.sess)
	if err != nil {
		return err
	}
	r.sess = sess
	return nil
}

func (r *remoteSession) Disconnect(ctx context.Context) error {
	if r.sess == nil {
		return nil
	}
	err := r.client.Disconnect(ctx, r.sess)
	r.sess = nil
	return err
}

func (r *remoteSession) ResolveDevice(ctx context.Context, deviceID string) (Device, error) {
	if r.sess == nil {
		return nil, errors.New("not connected")
	}
	return r.client.ResolveDevice(ctx, r.sess, deviceID)
}
