package usenet

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"novastream/config"

	"github.com/go-resty/resty/v2"
)

// DownloadStatus mirrors SABnzbd's per-job queue/history state as needed by
// the stream-readiness decision in the controller.
type DownloadStatus struct {
	ID          string  // SABnzbd nzo_id
	Status      string  // queued | downloading | completed | failed | error
	Percent     float64 // 0-100, only meaningful while downloading
	StoragePath string  // final directory once completed (history "storage")
	Name        string
	ErrorMsg    string
}

func (d DownloadStatus) Failed() bool {
	s := strings.ToLower(d.Status)
	return s == "failed" || s == "error"
}

func (d DownloadStatus) Completed() bool {
	return strings.ToLower(d.Status) == "completed"
}

// Downloader submits NZBs to an external SABnzbd-compatible downloader and
// polls its queue/history, per the Usenet Download Controller contract: the
// core never speaks NNTP to do the actual download, it only submits and
// polls a collaborator that already knows how.
type Downloader struct {
	cfg    *config.Manager
	client *resty.Client
}

// NewDownloader returns a downloader client bound to the SABnzbd endpoint in
// the current configuration.
func NewDownloader(cfg *config.Manager) *Downloader {
	return &Downloader{
		cfg:    cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

func (d *Downloader) endpoint() (host, apiKey string, err error) {
	settings, err := d.cfg.Load()
	if err != nil {
		return "", "", fmt.Errorf("load settings: %w", err)
	}
	host = strings.TrimRight(strings.TrimSpace(settings.SABnzbd.FallbackHost), "/")
	apiKey = strings.TrimSpace(settings.SABnzbd.FallbackAPIKey)
	if host == "" {
		return "", "", fmt.Errorf("sabnzbd host not configured")
	}
	return host, apiKey, nil
}

// Submit uploads nzbBytes as a new download job and returns SABnzbd's nzo_id.
func (d *Downloader) Submit(ctx context.Context, nzbBytes []byte, fileName string) (string, error) {
	host, apiKey, err := d.endpoint()
	if err != nil {
		return "", err
	}

	var out struct {
		Status bool     `json:"status"`
		NzoIDs []string `json:"nzo_ids"`
		Error  string   `json:"error"`
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"mode":   "addfile",
			"output": "json",
			"apikey": apiKey,
		}).
		SetFileReader("name", fileName, bytes.NewReader(nzbBytes)).
		SetResult(&out).
		Post(host + "/api")
	if err != nil {
		return "", fmt.Errorf("submit nzb: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("submit nzb: sabnzbd returned %s", resp.Status())
	}
	if !out.Status || len(out.NzoIDs) == 0 {
		if out.Error != "" {
			return "", fmt.Errorf("sabnzbd rejected nzb: %s", out.Error)
		}
		return "", fmt.Errorf("sabnzbd did not return a job id")
	}

	return out.NzoIDs[0], nil
}

// Status polls the job's current state, checking the active queue first and
// falling back to history once it has left the queue.
func (d *Downloader) Status(ctx context.Context, nzoID string) (*DownloadStatus, error) {
	host, apiKey, err := d.endpoint()
	if err != nil {
		return nil, err
	}

	var queue struct {
		Queue struct {
			Slots []struct {
				NzoID    string `json:"nzo_id"`
				Status   string `json:"status"`
				Percent  string `json:"percentage"`
				Filename string `json:"filename"`
			} `json:"slots"`
		} `json:"queue"`
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"mode":   "queue",
			"output": "json",
			"apikey": apiKey,
			"nzo_ids": nzoID,
		}).
		SetResult(&queue).
		Get(host + "/api")
	if err != nil {
		return nil, fmt.Errorf("poll queue: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("poll queue: sabnzbd returned %s", resp.Status())
	}

	for _, slot := range queue.Queue.Slots {
		if slot.NzoID != nzoID {
			continue
		}
		pct, _ := strconv.ParseFloat(slot.Percent, 64)
		return &DownloadStatus{
			ID:      nzoID,
			Status:  strings.ToLower(slot.Status),
			Percent: pct,
			Name:    slot.Filename,
		}, nil
	}

	return d.historyStatus(ctx, nzoID)
}

func (d *Downloader) historyStatus(ctx context.Context, nzoID string) (*DownloadStatus, error) {
	host, apiKey, err := d.endpoint()
	if err != nil {
		return nil, err
	}

	var history struct {
		History struct {
			Slots []struct {
				NzoID       string `json:"nzo_id"`
				Status      string `json:"status"`
				Storage     string `json:"storage"`
				Name        string `json:"name"`
				FailMessage string `json:"fail_message"`
			} `json:"slots"`
		} `json:"history"`
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"mode":    "history",
			"output":  "json",
			"apikey":  apiKey,
			"nzo_ids": nzoID,
		}).
		SetResult(&history).
		Get(host + "/api")
	if err != nil {
		return nil, fmt.Errorf("poll history: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("poll history: sabnzbd returned %s", resp.Status())
	}

	for _, slot := range history.History.Slots {
		if slot.NzoID != nzoID {
			continue
		}
		status := strings.ToLower(slot.Status)
		ds := &DownloadStatus{
			ID:          nzoID,
			Status:      status,
			StoragePath: slot.Storage,
			Name:        slot.Name,
			ErrorMsg:    slot.FailMessage,
		}
		if status == "completed" {
			ds.Percent = 100
		}
		return ds, nil
	}

	return nil, fmt.Errorf("job %s not found in queue or history", nzoID)
}
