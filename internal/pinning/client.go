package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/five82/pinwall/internal/auth"
)

// TokenSource supplies bearer tokens for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Ensure Client implements the session contract at compile time.
var _ auth.SessionFetcher = (*Client)(nil)

// Options configure a Client. Empty paths use the service defaults.
type Options struct {
	BaseURL       string
	SessionPath   string
	LogoutPath    string
	PinsPath      string
	SessionCookie string
	Timeout       time.Duration
	Logger        zerolog.Logger
	HTTPClient    *http.Client
}

// Client talks to the pinning service and its session endpoint.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	userAgent   string
	sessionPath string
	logoutPath  string
	pinsPath    string
	cookie      string
	log         zerolog.Logger
	tokens      TokenSource
	now         func() time.Time
}

const (
	defaultBaseURL     = "http://127.0.0.1:3000"
	defaultSessionPath = "/api/session"
	defaultLogoutPath  = "/api/logout"
	defaultPinsPath    = "/api/pinata"
	defaultUserAgent   = "pinwall/0.1"
	requestTimeout     = 30 * time.Second
	maxErrorBody       = 64 * 1024

	// UploadField is the multipart field carrying the file bytes.
	UploadField = "file"
)

// NewClient builds a Client for the service at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = requestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:     base,
		http:        httpClient,
		userAgent:   defaultUserAgent,
		sessionPath: orDefault(opts.SessionPath, defaultSessionPath),
		logoutPath:  orDefault(opts.LogoutPath, defaultLogoutPath),
		pinsPath:    orDefault(opts.PinsPath, defaultPinsPath),
		cookie:      strings.TrimSpace(opts.SessionCookie),
		log:         opts.Logger,
		now:         time.Now,
	}, nil
}

// UseTokens sets the token source for authenticated calls. It must be called
// before the client is shared between goroutines.
func (c *Client) UseTokens(ts TokenSource) {
	c.tokens = ts
}

// FetchSession asks the session service for the current bearer token.
func (c *Client) FetchSession(ctx context.Context) (auth.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, &url.URL{Path: c.sessionPath}, nil, "")
	if err != nil {
		return auth.Session{}, err
	}
	var payload auth.Session
	if err := c.send(req, &payload); err != nil {
		return auth.Session{}, err
	}
	return payload, nil
}

// EndSession tells the session service to drop the current session.
func (c *Client) EndSession(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, &url.URL{Path: c.logoutPath}, nil, "")
	if err != nil {
		return err
	}
	return c.send(req, nil)
}

// ListPins returns the authoritative list of pinned content.
func (c *Client) ListPins(ctx context.Context) ([]PinnedFile, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	rel := &url.URL{Path: c.pinsPath, RawQuery: values.Encode()}

	var payload listResponse
	err := c.doAuthed(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, rel, nil, "")
	}, &payload)
	if err != nil {
		return nil, err
	}
	if payload.Success == nil || !*payload.Success || payload.Images == nil {
		return nil, fmt.Errorf("%w: list response missing success or images", ErrUnexpectedResponse)
	}
	return c.mapRecords(*payload.Images), nil
}

// Upload sends data as a multipart file named fileName.
func (c *Client) Upload(ctx context.Context, fileName string, data []byte) (UploadAck, error) {
	if c == nil {
		return UploadAck{}, fmt.Errorf("client is nil")
	}
	contentType := mimetype.Detect(data).String()
	rel := &url.URL{Path: c.pinsPath}

	var ack UploadAck
	err := c.doAuthed(ctx, func() (*http.Request, error) {
		body, formType, err := multipartBody(fileName, contentType, data)
		if err != nil {
			return nil, err
		}
		return c.newRequest(ctx, http.MethodPost, rel, body, formType)
	}, &ack)
	if err != nil {
		return UploadAck{}, err
	}
	return ack, nil
}

// Unpin asks the service to stop pinning contentID.
func (c *Client) Unpin(ctx context.Context, contentID string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return fmt.Errorf("content id required")
	}
	values := url.Values{}
	values.Set("hash", contentID)
	rel := &url.URL{Path: c.pinsPath, RawQuery: values.Encode()}
	return c.doAuthed(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodDelete, rel, nil, "")
	}, nil)
}

// doAuthed attaches the bearer token and retries exactly once with a fresh
// token when the service rejects the current one.
func (c *Client) doAuthed(ctx context.Context, build func() (*http.Request, error), dest any) error {
	for attempt := 0; ; attempt++ {
		req, err := build()
		if err != nil {
			return err
		}
		if c.tokens != nil {
			token, err := c.tokens.Token(ctx)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}

		err = c.send(req, dest)
		var apiErr *APIError
		if c.tokens == nil || !errors.As(err, &apiErr) || !apiErr.Unauthorized() {
			return err
		}
		c.tokens.Invalidate()
		if attempt > 0 {
			return fmt.Errorf("%w: token rejected: %w", auth.ErrAuthRequired, err)
		}
		c.log.Info().Str("path", req.URL.Path).Msg("token rejected, refetching once")
	}
}

func (c *Client) newRequest(ctx context.Context, method string, rel *url.URL, body io.Reader, contentType string) (*http.Request, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, dest any) error {
	started := time.Now()
	reqID := req.Header.Get("X-Request-ID")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("request_id", reqID).Str("method", req.Method).
			Str("path", req.URL.Path).Msg("request failed")
		return fmt.Errorf("%w: execute request: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().Str("request_id", reqID).Str("method", req.Method).Str("path", req.URL.Path).
		Int("status", resp.StatusCode).Dur("elapsed", time.Since(started)).Msg("request done")

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Method:  req.Method,
			Path:    req.URL.Path,
			Status:  resp.StatusCode,
			Payload: decodePayload(body),
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}
	if err := failedAck(req, resp.StatusCode, body); err != nil {
		c.log.Warn().Str("request_id", reqID).Str("method", req.Method).
			Str("path", req.URL.Path).Msg("service reported failure in a success response")
		return err
	}
	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUnexpectedResponse, err)
	}
	return nil
}

// failedAck turns a 2xx body carrying "success": false into an
// ErrUnexpectedResponse that wraps an *APIError with the decoded payload, so
// callers still see the remote message and duplicate markers.
func failedAck(req *http.Request, status int, body []byte) error {
	var ack struct {
		Success *bool `json:"success"`
	}
	if json.Unmarshal(body, &ack) != nil || ack.Success == nil || *ack.Success {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUnexpectedResponse, &APIError{
		Method:  req.Method,
		Path:    req.URL.Path,
		Status:  status,
		Payload: decodePayload(body),
	})
}

func (c *Client) mapRecords(records []pinRecord) []PinnedFile {
	files := make([]PinnedFile, 0, len(records))
	for _, rec := range records {
		id := strings.TrimSpace(rec.IpfsHash)
		if id == "" {
			continue
		}
		if !ValidContentID(id) {
			c.log.Warn().Str("content_id", id).Msg("dropping list entry with invalid cid")
			continue
		}
		files = append(files, PinnedFile{ContentID: id, CreatedAt: parseTime(rec.CreatedAt)})
	}
	return files
}

func multipartBody(fileName, contentType string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", multipart.FileContentDisposition(UploadField, fileName))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
