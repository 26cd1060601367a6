package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mrpdigital/office-portal/internal/domain/letter"
)

// Client talks to the spreadsheet-backed remote store over its narrow
// action protocol. Writes are fire-and-forget: the transport gives no
// usable confirmation, so a SyncResult of Dispatched only means the
// request left cleanly. Reads are best-effort and fail loudly.
type Client struct {
	http   *http.Client
	source ConfigSource
	logger *slog.Logger
}

// NewClient creates a remote client. httpClient may be nil, in which
// case a client with a 30s timeout is used.
func NewClient(source ConfigSource, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: httpClient, source: source, logger: logger}
}

// Push dispatches a write to the remote endpoint. The response body is
// never consumed; a completed HTTP exchange counts as Dispatched
// regardless of status, matching what the script's opaque transport
// lets callers observe. Callers must not gate local progress on this.
func (c *Client) Push(ctx context.Context, action Action, payload map[string]any) SyncResult {
	cfg, err := c.source.Remote(ctx)
	if err != nil {
		return failed(fmt.Sprintf("resolving remote config: %v", err))
	}
	if cfg.ScriptURL == "" {
		return failed(ErrNotConfigured.Error())
	}

	body := make(map[string]any, len(payload)+4)
	for k, v := range payload {
		body[k] = v
	}
	body["action"] = action
	body["storeId"] = cfg.StoreID
	body["archiveId"] = cfg.ArchiveID
	body["timestamp"] = time.Now().Format(time.RFC3339)

	encoded, err := json.Marshal(body)
	if err != nil {
		return failed(fmt.Sprintf("encoding payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.ScriptURL, bytes.NewReader(encoded))
	if err != nil {
		return failed(fmt.Sprintf("building request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("push dispatch failed", "action", action, "error", err)
		return failed(err.Error())
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	c.logger.Debug("push dispatched", "action", action, "status", resp.StatusCode)
	return dispatched()
}

// PushSaveLetter dispatches a newly created letter.
func (c *Client) PushSaveLetter(ctx context.Context, data any) SyncResult {
	return c.Push(ctx, ActionSaveLetter, map[string]any{"data": data})
}

// PushUpdateLetter dispatches an updated letter.
func (c *Client) PushUpdateLetter(ctx context.Context, id string, data any) SyncResult {
	return c.Push(ctx, ActionUpdateLetter, map[string]any{"id": id, "data": data})
}

// PushDeleteLetter dispatches a letter deletion.
func (c *Client) PushDeleteLetter(ctx context.Context, id string) SyncResult {
	return c.Push(ctx, ActionDeleteLetter, map[string]any{"id": id})
}

// PullResult is the outcome of a full remote read.
type PullResult struct {
	Letters []letter.Letter
	// Quarantined counts remote rows dropped for failing validation.
	Quarantined int
}

// PullAll retrieves the complete remote record set. Malformed rows are
// quarantined (logged and counted) rather than let into the local
// store. Network failures, non-2xx responses, unparseable bodies and
// error-flagged payloads all wrap ErrUnreachable.
func (c *Client) PullAll(ctx context.Context) (PullResult, error) {
	cfg, err := c.source.Remote(ctx)
	if err != nil {
		return PullResult{}, fmt.Errorf("resolving remote config: %w", err)
	}
	if cfg.ScriptURL == "" {
		return PullResult{}, ErrNotConfigured
	}

	query := url.Values{}
	query.Set("action", string(ActionGetLetters))
	query.Set("storeId", cfg.StoreID)
	// Cache buster: the script endpoint sits behind an aggressive cache.
	query.Set("cb", strconv.FormatInt(time.Now().UnixNano(), 10))

	body, err := c.get(ctx, cfg.ScriptURL, query)
	if err != nil {
		return PullResult{}, err
	}

	var rows []wireLetter
	if err := json.Unmarshal(body, &rows); err != nil {
		var appErr struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &appErr); jsonErr == nil && appErr.Error != "" {
			return PullResult{}, fmt.Errorf("%w: remote error: %s", ErrUnreachable, appErr.Error)
		}
		return PullResult{}, fmt.Errorf("%w: unparseable response: %v", ErrUnreachable, err)
	}

	result := PullResult{Letters: make([]letter.Letter, 0, len(rows))}
	for i := range rows {
		l, err := rows[i].toLetter()
		if err != nil {
			c.logger.Warn("quarantined malformed remote row", "error", err)
			result.Quarantined++
			continue
		}
		result.Letters = append(result.Letters, l)
	}
	return result, nil
}

// Ping checks remote reachability. Diagnostics only; it never gates
// normal operation.
func (c *Client) Ping(ctx context.Context) bool {
	cfg, err := c.source.Remote(ctx)
	if err != nil || cfg.ScriptURL == "" {
		return false
	}

	query := url.Values{}
	query.Set("action", string(ActionPing))

	body, err := c.get(ctx, cfg.ScriptURL, query)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(body)) == "pong"
}

// UploadAttachment transmits attachment bytes as a base64 payload. The
// remote assigns the final URL asynchronously; only a later PullAll can
// observe it. A Failed dispatch is returned as an error so callers can
// log it, but per the sync contract it must not block the local record.
func (c *Client) UploadAttachment(ctx context.Context, fileName string, data []byte, mimeType, letterNumber string) error {
	res := c.Push(ctx, ActionUploadFile, map[string]any{
		"fileName":     fileName,
		"fileData":     base64.StdEncoding.EncodeToString(data),
		"mimeType":     mimeType,
		"letterNumber": letterNumber,
	})
	if res.State == Failed {
		return fmt.Errorf("upload dispatch: %s", res.Reason)
	}
	return nil
}

func (c *Client) get(ctx context.Context, scriptURL string, query url.Values) ([]byte, error) {
	u, err := url.Parse(scriptURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint: %v", ErrUnreachable, err)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}
	return body, nil
}
