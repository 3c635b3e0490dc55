package jd

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/Timmy93/MyJDProxy/internal/models"
	"github.com/Timmy93/MyJDProxy/internal/myjd"
)

// AddDownloadPackage validates req and submits it to the device's
// linkgrabber. Validation problems come back as a soft AddResult with
// Success=false; remote failures come back as an error.
func (c *Client) AddDownloadPackage(ctx context.Context, req models.DownloadRequest) (models.AddResult, error) {
	if strings.TrimSpace(req.Name) == "" {
		return models.AddResult{Message: "No package name provided"}, nil
	}
	if len(req.Links) == 0 {
		return models.AddResult{Message: "No download links provided"}, nil
	}
	if !slices.Contains(c.allowedCategories, req.Category) {
		return models.AddResult{
			Message: fmt.Sprintf("Invalid category: %s. Allowed categories: %s",
				req.Category, strings.Join(c.allowedCategories, ", ")),
		}, nil
	}

	params := myjd.AddLinksParams{
		PackageName:       req.Name,
		Links:             strings.Join(req.Links, "\n"),
		DestinationFolder: filepath.Join(c.basePath, req.Category),
		AutoStart:         req.AutoStart,
	}

	_, err := runWithRetry(ctx, c, "addLinks", func(d Device) (struct{}, error) {
		return struct{}{}, d.AddLinks(ctx, params)
	})
	if err != nil {
		return models.AddResult{}, err
	}

	c.log.Info().
		Str("package", req.Name).
		Int("links", len(req.Links)).
		Str("category", req.Category).
		Msg("added download package")
	return models.AddResult{
		Success: true,
		Message: fmt.Sprintf("Added download package '%s' with %d links", req.Name, len(req.Links)),
	}, nil
}

// GetDownloadPackages queries the device's download list and maps every
// row into a fresh snapshot.
func (c *Client) GetDownloadPackages(ctx context.Context) ([]models.DownloadPackage, error) {
	records, err := runWithRetry(ctx, c, "queryPackages", func(d Device) ([]myjd.PackageRecord, error) {
		return d.QueryDownloadPackages(ctx)
	})
	if err != nil {
		return nil, err
	}

	packages := make([]models.DownloadPackage, 0, len(records))
	for _, rec := range records {
		packages = append(packages, models.DownloadPackage{
			Name:        rec.Name,
			PackageID:   strconv.FormatInt(rec.UUID, 10),
			Status:      models.StatusFromString(rec.Status),
			BytesTotal:  rec.BytesTotal,
			BytesLoaded: rec.BytesLoaded,
			Speed:       rec.Speed,
			ETA:         rec.ETA,
		})
	}
	return packages, nil
}

// GetLinkgrabberPackages returns the packages still pending in the
// linkgrabber, in the device's raw shape.
func (c *Client) GetLinkgrabberPackages(ctx context.Context) ([]myjd.CrawledPackage, error) {
	return runWithRetry(ctx, c, "queryLinkgrabber", func(d Device) ([]myjd.CrawledPackage, error) {
		return d.QueryLinkgrabberPackages(ctx)
	})
}

// StartDownloads starts all downloads, or force-starts the given packages
// when packageIDs is non-empty.
func (c *Client) StartDownloads(ctx context.Context, packageIDs []string) error {
	if len(packageIDs) == 0 {
		_, err := runWithRetry(ctx, c, "startDownloads", func(d Device) (struct{}, error) {
			return struct{}{}, d.StartDownloads(ctx)
		})
		if err == nil {
			c.log.Info().Msg("started all downloads")
		}
		return err
	}

	ids, err := parsePackageIDs(packageIDs)
	if err != nil {
		return err
	}
	_, err = runWithRetry(ctx, c, "forceDownload", func(d Device) (struct{}, error) {
		return struct{}{}, d.ForceDownload(ctx, ids)
	})
	if err == nil {
		c.log.Info().Int("packages", len(ids)).Msg("started downloads for packages")
	}
	return err
}

// PauseDownloads pauses all downloads, or disables the given packages when
// packageIDs is non-empty.
func (c *Client) PauseDownloads(ctx context.Context, packageIDs []string) error {
	if len(packageIDs) == 0 {
		_, err := runWithRetry(ctx, c, "pauseDownloads", func(d Device) (struct{}, error) {
			return struct{}{}, d.PauseDownloads(ctx, true)
		})
		if err == nil {
			c.log.Info().Msg("paused all downloads")
		}
		return err
	}

	ids, err := parsePackageIDs(packageIDs)
	if err != nil {
		return err
	}
	_, err = runWithRetry(ctx, c, "setEnabled", func(d Device) (struct{}, error) {
		return struct{}{}, d.SetEnabled(ctx, false, ids)
	})
	if err == nil {
		c.log.Info().Int("packages", len(ids)).Msg("paused downloads for packages")
	}
	return err
}

// parsePackageIDs converts the caller-facing string ids into the device's
// numeric uuids.
func parsePackageIDs(packageIDs []string) ([]int64, error) {
	ids := make([]int64, 0, len(packageIDs))
	for _, raw := range packageIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid package id: %s", raw)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
