package myjd

import (
	"context"
	"fmt"
)

// Device is a handle to one download agent, bound to the session that
// resolved it.
type Device struct {
	client *Client
	sess   *Session
	id     string
	name   string
}

func (d *Device) ID() string   { return d.id }
func (d *Device) Name() string { return d.name }

// AddLinksParams is the linkgrabber submission payload. Links holds the
// URLs joined by newlines, which is the format the device expects.
type AddLinksParams struct {
	PackageName       string `json:"packageName"`
	Links             string `json:"links"`
	DestinationFolder string `json:"destinationFolder"`
	AutoStart         bool   `json:"autostart"`
}

// PackageRecord is a raw download package row as reported by the device.
type PackageRecord struct {
	UUID        int64  `json:"uuid"`
	Name        string `json:"name"`
	BytesTotal  int64  `json:"bytesTotal"`
	BytesLoaded int64  `json:"bytesLoaded"`
	Status      string `json:"status"`
	Speed       int64  `json:"speed"`
	ETA         int64  `json:"eta"`
	Finished    bool   `json:"finished"`
}

// CrawledPackage is a raw linkgrabber package row: links submitted but not
// yet moved to the download list.
type CrawledPackage struct {
	UUID       int64  `json:"uuid"`
	Name       string `json:"name"`
	BytesTotal int64  `json:"bytesTotal"`
	ChildCount int    `json:"childCount"`
	Hosts      string `json:"hosts,omitempty"`
	SaveTo     string `json:"saveTo,omitempty"`
}

var packageQuery = map[string]interface{}{
	"bytesTotal":  true,
	"bytesLoaded": true,
	"status":      true,
	"speed":       true,
	"eta":         true,
	"finished":    true,
}

var crawledQuery = map[string]interface{}{
	"bytesTotal": true,
	"childCount": true,
	"hosts":      true,
	"saveTo":     true,
}

// AddLinks submits a package to the device's linkgrabber.
func (d *Device) AddLinks(ctx context.Context, params AddLinksParams) error {
	if err := d.client.callDevice(ctx, d.sess, d.id, "/linkgrabberv2/addLinks", []interface{}{params}, nil); err != nil {
		return fmt.Errorf("addLinks failed: %w", err)
	}
	return nil
}

// QueryDownloadPackages lists the packages on the device's download list.
func (d *Device) QueryDownloadPackages(ctx context.Context) ([]PackageRecord, error) {
	var result []PackageRecord
	if err := d.client.callDevice(ctx, d.sess, d.id, "/downloadsV2/queryPackages", []interface{}{packageQuery}, &result); err != nil {
		return nil, fmt.Errorf("queryPackages failed: %w", err)
	}
	return result, nil
}

// QueryLinkgrabberPackages lists packages still pending in the linkgrabber.
func (d *Device) QueryLinkgrabberPackages(ctx context.Context) ([]CrawledPackage, error) {
	var result []CrawledPackage
	if err := d.client.callDevice(ctx, d.sess, d.id, "/linkgrabberv2/queryPackages", []interface{}{crawledQuery}, &result); err != nil {
		return nil, fmt.Errorf("queryPackages failed: %w", err)
	}
	return result, nil
}

// StartDownloads starts the device's download controller.
func (d *Device) StartDownloads(ctx context.Context) error {
	if err := d.client.callDevice(ctx, d.sess, d.id, "/downloadcontroller/start", nil, nil); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}
	return nil
}

// PauseDownloads pauses or unpauses the device's download controller.
func (d *Device) PauseDownloads(ctx context.Context, pause bool) error {
	if err := d.client.callDevice(ctx, d.sess, d.id, "/downloadcontroller/pause", []interface{}{pause}, nil); err != nil {
		return fmt.Errorf("pause failed: %w", err)
	}
	return nil
}

// ForceDownload force-starts the given packages regardless of the global
// controller state.
func (d *Device) ForceDownload(ctx context.Context, packageIDs []int64) error {
	if err := d.client.callDevice(ctx, d.sess, d.id, "/downloadsV2/forceDownload", []interface{}{[]int64{}, packageIDs}, nil); err != nil {
		return fmt.Errorf("forceDownload failed: %w", err)
	}
	return nil
}

// SetEnabled enables or disables the given packages. Disabling is the
// per-package equivalent of pausing.
func (d *Device) SetEnabled(ctx context.Context, enabled bool, packageIDs []int64) error {
	if err := d.client.callDevice(ctx, d.sess, d.id, "/downloadsV2/setEnabled", []interface{}{enabled, []int64{}, packageIDs}, nil); err != nil {
		return fmt.Errorf("setEnabled failed: %w", err)
	}
	return nil
}
