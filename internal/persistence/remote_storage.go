package persistence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"deckd/internal/editor"
	"deckd/internal/models"
	"deckd/internal/providers"
)

// SnapshotUpdate is the body of a snapshot update sent to the recording
// storage service.
type SnapshotUpdate struct {
	Op        editor.ChangeOp        `json:"op"`
	Index     int                    `json:"index"`
	Revision  uint64                 `json:"revision"`
	Patch     any                    `json:"patch,omitempty"`
	Recording *models.ClickRecording `json:"recording"`
}

// RemoteStorage talks to the recording storage service over HTTP:
//
//	PUT    {base}/recordings/{id}/snapshots/{index}
//	DELETE {base}/recordings/{id}
type RemoteStorage struct {
	base   string
	client *http.Client
	logger providers.Logger
}

func NewRemoteStorage(base string, timeout time.Duration, logger providers.Logger) *RemoteStorage {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteStorage{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (r *RemoteStorage) recordingURL(id string) string {
	return r.base + "/recordings/" + url.PathEscape(id)
}

func (r *RemoteStorage) PersistSnapshotUpdate(ctx context.Context, recordingID string, change editor.Change, rec *models.ClickRecording) error {
	body, err := json.Marshal(SnapshotUpdate{
		Op:        change.Op,
		Index:     change.Index,
		Revision:  change.Revision,
		Patch:     change.Patch,
		Recording: rec,
	})
	if err != nil {
		return err
	}
	target := fmt.Sprintf("%s/snapshots/%d", r.recordingURL(recordingID), change.Index)
	return r.do(ctx, http.MethodPut, target, body)
}

func (r *RemoteStorage) DeleteRecording(ctx context.Context, recordingID string) error {
	return r.do(ctx, http.MethodDelete, r.recordingURL(recordingID), nil)
}

func (r *RemoteStorage) do(ctx context.Context, method, target string, body []byte) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, target, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	r.logger.Debugf(providers.TypeStorage, "%s %s: %d", method, target, resp.StatusCode)
	return nil
}

func (r *RemoteStorage) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
