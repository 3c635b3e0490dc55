package jd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Timmy93/MyJDProxy/internal/models"
	"github.com/Timmy93/MyJDProxy/internal/myjd"
)

func TestAddDownloadPackageValidation(t *testing.T) {
	tests := []struct {
		name        string
		req         models.DownloadRequest
		wantMessage string
	}{
		{
			name:        "empty name",
			req:         models.DownloadRequest{Name: "  ", Links: []string{"http://host/a"}, Category: "movie"},
			wantMessage: "No package name provided",
		},
		{
			name:        "no links",
			req:         models.DownloadRequest{Name: "pkg", Category: "movie"},
			wantMessage: "No download links provided",
		},
		{
			name:        "disallowed category",
			req:         models.DownloadRequest{Name: "pkg", Links: []string{"http://host/a"}, Category: "horror"},
			wantMessage: "Invalid category",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			session := &fakeSession{device: &fakeDevice{}}
			client := newTestClient(session)

			result, err := client.AddDownloadPackage(context.Background(), tc.req)

			require.NoError(t, err, "validation problems must be soft failures")
			assert.False(t, result.Success)
			assert.Contains(t, result.Message, tc.wantMessage)
			// Nothing must reach the remote service.
			assert.Equal(t, int32(0), session.connectCalls.Load())
		})
	}
}

func TestAddDownloadPackageSubmitsJoinedLinks(t *testing.T) {
	var captured myjd.AddLinksParams
	device := &fakeDevice{
		addLinks: func(params myjd.AddLinksParams) error {
			captured = params
			return nil
		},
	}
	client := newTestClient(&fakeSession{device: device})

	result, err := client.AddDownloadPackage(context.Background(), models.DownloadRequest{
		Name:      "Show S01",
		Links:     []string{"http://host/a", "http://host/b"},
		Category:  "tv_show",
		AutoStart: true,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Show S01", captured.PackageName)
	assert.Equal(t, "http://host/a\nhttp://host/b", captured.Links)
	assert.Equal(t, "/downloads/tv_show", captured.DestinationFolder)
	assert.True(t, captured.AutoStart)
}

func TestAddDownloadPackageRemoteFailureIsHard(t *testing.T) {
	device := &fakeDevice{
		addLinks: func(myjd.AddLinksParams) error {
			return &myjd.APIError{StatusCode: 500, Type: "UNKNOWN"}
		},
	}
	client := newTestClient(&fakeSession{device: device})

	_, err := client.AddDownloadPackage(context.Background(), models.DownloadRequest{
		Name:     "pkg",
		Links:    []string{"http://host/a"},
		Category: "movie",
	})

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
}

func TestGetDownloadPackagesMapsRecords(t *testing.T) {
	device := &fakeDevice{
		queryDownloads: func() ([]myjd.PackageRecord, error) {
			return []myjd.PackageRecord{
				{UUID: 42, Name: "pkg", BytesTotal: 1000, BytesLoaded: 250, Status: "downloading", Speed: 512, ETA: 30},
				{UUID: 43, Name: "empty", BytesTotal: 0, BytesLoaded: 0, Status: "weird-state"},
			}, nil
		},
	}
	client := newTestClient(&fakeSession{device: device})

	packages, err := client.GetDownloadPackages(context.Background())
	require.NoError(t, err)
	require.Len(t, packages, 2)

	pkg := packages[0]
	assert.Equal(t, "42", pkg.PackageID)
	assert.Equal(t, models.StatusDownloading, pkg.Status)
	assert.InDelta(t, 25.0, pkg.ProgressPercentage(), 0.001)
	assert.True(t, pkg.IsDownloading())
	assert.False(t, pkg.IsCompleted())

	// Zero total size must not fault.
	assert.Equal(t, 0.0, packages[1].ProgressPercentage())
	assert.Equal(t, models.StatusUnknown, packages[1].Status)
}

func TestStartDownloadsSelective(t *testing.T) {
	var forced []int64
	var startedAll bool
	device := &fakeDevice{
		force: func(ids []int64) error {
			forced = ids
			return nil
		},
		start: func() error {
			startedAll = true
			return nil
		},
	}
	client := newTestClient(&fakeSession{device: device})

	require.NoError(t, client.StartDownloads(context.Background(), []string{"42", "43"}))
	assert.Equal(t, []int64{42, 43}, forced)
	assert.False(t, startedAll)

	require.NoError(t, client.StartDownloads(context.Background(), nil))
	assert.True(t, startedAll)
}

func TestPauseDownloadsSelective(t *testing.T) {
	var disabled []int64
	var enabledFlag = true
	var pausedAll bool
	device := &fakeDevice{
		setEnabled: func(enabled bool, ids []int64) error {
			enabledFlag = enabled
			disabled = ids
			return nil
		},
		pause: func(pause bool) error {
			pausedAll = pause
			return nil
		},
	}
	client := newTestClient(&fakeSession{device: device})

	require.NoError(t, client.PauseDownloads(context.Background(), []string{"7"}))
	assert.Equal(t, []int64{7}, disabled)
	assert.False(t, enabledFlag)

	require.NoError(t, client.PauseDownloads(context.Background(), nil))
	assert.True(t, pausedAll)
}

func TestControlRejectsMalformedPackageIDs(t *testing.T) {
	client := newTestClient(&fakeSession{device: &fakeDevice{}})

	err := client.StartDownloads(context.Background(), []string{"not-a-number"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Message, "invalid package id")
}

func TestGetLinkgrabberPackages(t *testing.T) {
	device := &fakeDevice{
		queryLinkgrabber: func() ([]myjd.CrawledPackage, error) {
			return []myjd.CrawledPackage{{UUID: 1, Name: "pending", ChildCount: 3}}, nil
		},
	}
	client := newTestClient(&fakeSession{device: device})

	packages, err := client.GetLinkgrabberPackages(context.Background())

	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, "pending", packages[0].Name)
}
