package models

import (
	"fmt"
	"strings"
)

type DownloadStatus string

const (
	StatusUnknown     DownloadStatus = "unknown"
	StatusDownloading DownloadStatus = "downloading"
	StatusFinished    DownloadStatus = "finished"
	StatusFailed      DownloadStatus = "failed"
	StatusPaused      DownloadStatus = "paused"
	StatusPending     DownloadStatus = "pending"
	StatusExtracting  DownloadStatus = "extracting"
)

// StatusFromString maps a raw status reported by the remote device to a
// DownloadStatus. Unrecognized values become StatusUnknown.
func StatusFromString(s string) DownloadStatus {
	switch strings.ToLower(s) {
	case "downloading":
		return StatusDownloading
	case "finished":
		return StatusFinished
	case "failed":
		return StatusFailed
	case "paused":
		return StatusPaused
	case "pending":
		return StatusPending
	case "extracting":
		return StatusExtracting
	default:
		return StatusUnknown
	}
}

// DownloadPackage is a point-in-time snapshot of a package tracked by the
// remote device. It is rebuilt on every query and never cached.
type DownloadPackage struct {
	Name        string         `json:"name"`
	PackageID   string         `json:"package_id"`
	Status      DownloadStatus `json:"status"`
	BytesTotal  int64          `json:"bytes_total"`
	BytesLoaded int64          `json:"bytes_loaded"`
	Speed       int64          `json:"speed"`
	ETA         int64          `json:"eta"`
}

// ProgressPercentage returns the download progress in percent. A package
// with an unknown total size reports 0.
func (p DownloadPackage) ProgressPercentage() float64 {
	if p.BytesTotal == 0 {
		return 0.0
	}
	return float64(p.BytesLoaded) / float64(p.BytesTotal) * 100
}

func (p DownloadPackage) IsCompleted() bool {
	return p.Status == StatusFinished
}

func (p DownloadPackage) IsDownloading() bool {
	return p.Status == StatusDownloading
}

func (p DownloadPackage) FormattedSize() string {
	return FormatBytes(p.BytesTotal)
}

func (p DownloadPackage) FormattedLoaded() string {
	return FormatBytes(p.BytesLoaded)
}

func (p DownloadPackage) FormattedSpeed() string {
	if p.Speed == 0 {
		return "0 B/s"
	}
	return FormatBytes(p.Speed) + "/s"
}

// DownloadPackageView is the JSON shape served to API consumers, with the
// derived fields flattened in.
type DownloadPackageView struct {
	Name               string         `json:"name"`
	PackageID          string         `json:"package_id"`
	Status             DownloadStatus `json:"status"`
	ProgressPercentage float64        `json:"progress_percentage"`
	BytesTotal         int64          `json:"bytes_total"`
	BytesLoaded        int64          `json:"bytes_loaded"`
	FormattedSize      string         `json:"formatted_size"`
	FormattedLoaded    string         `json:"formatted_downloaded"`
	Speed              int64          `json:"speed"`
	FormattedSpeed     string         `json:"formatted_speed"`
	ETA                int64          `json:"eta"`
	IsCompleted        bool           `json:"is_completed"`
	IsDownloading      bool           `json:"is_downloading"`
}

func (p DownloadPackage) View() DownloadPackageView {
	return DownloadPackageView{
		Name:               p.Name,
		PackageID:          p.PackageID,
		Status:             p.Status,
		ProgressPercentage: p.ProgressPercentage(),
		BytesTotal:         p.BytesTotal,
		BytesLoaded:        p.BytesLoaded,
		FormattedSize:      p.FormattedSize(),
		FormattedLoaded:    p.FormattedLoaded(),
		Speed:              p.Speed,
		FormattedSpeed:     p.FormattedSpeed(),
		ETA:                p.ETA,
		IsCompleted:        p.IsCompleted(),
		IsDownloading:      p.IsDownloading(),
	}
}

// FormatBytes renders a byte count in a human readable unit.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
