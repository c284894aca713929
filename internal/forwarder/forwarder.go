package forwarder

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/funnyzak/reqreplay/internal/logger"
	"github.com/funnyzak/reqreplay/pkg/request"
)

// Forwarder issues replay requests against the reporting service
type Forwarder struct {
	client           *http.Client
	logger           logger.Logger
	maxResponseBytes int64
	accept           map[int]struct{}
	mu               sync.Mutex
	closed           bool
}

// Options 转发器配置
type Options struct {
	Timeout               time.Duration
	MaxIdleConns          int
	IdleConnTimeout       time.Duration
	ResponseHeaderTimeout time.Duration
	TLSHandshakeTimeout   time.Duration
	TLSInsecureSkipVerify bool
	// MaxResponseBytes caps how much of a response body is kept (0 = 10MB)
	MaxResponseBytes int64
	// AcceptStatus lists the status codes treated as success; empty means 2xx
	AcceptStatus []int
}

var (
	// ErrForwarderClosed indicates the forwarder has been shut down.
	ErrForwarderClosed = errors.New("forwarder is closed")
	// ErrUnexpectedStatus indicates the service answered outside the accepted statuses.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// NewForwarder creates new forwarder
func NewForwarder(logger logger.Logger, opts Options) *Forwarder {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          positiveOrDefault(opts.MaxIdleConns, 4),
		MaxIdleConnsPerHost:   positiveOrDefault(opts.MaxIdleConns, 4),
		IdleConnTimeout:       durationOrDefault(opts.IdleConnTimeout, 90*time.Second),
		ResponseHeaderTimeout: durationOrDefault(opts.ResponseHeaderTimeout, 45*time.Second),
		TLSHandshakeTimeout:   durationOrDefault(opts.TLSHandshakeTimeout, 10*time.Second),
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.TLSInsecureSkipVerify,
		},
	}

	var accept map[int]struct{}
	if len(opts.AcceptStatus) > 0 {
		accept = make(map[int]struct{}, len(opts.AcceptStatus))
		for _, status := range opts.AcceptStatus {
			accept[status] = struct{}{}
		}
	}

	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}

	return &Forwarder{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		logger:           logger,
		maxResponseBytes: maxBytes,
		accept:           accept,
	}
}

// Send issues req and returns the response. A response outside the accepted
// statuses is returned together with an ErrUnexpectedStatus error so the
// caller can still report its body.
func (f *Forwarder) Send(ctx context.Context, req *request.ReplayRequest) (*request.Response, error) {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return nil, ErrForwarderClosed
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	if f.logger != nil {
		f.logger.Debug("Sending replay request",
			"method", req.Method,
			"url", req.URL,
			"body_bytes", len(req.Body),
		)
	}

	start := time.Now()
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && f.logger != nil {
			f.logger.Warn("Failed to close response body", "error", cerr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}
	// drain the remainder so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	out := &request.Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
		Elapsed:     time.Since(start),
	}

	if !f.accepted(resp.StatusCode) {
		return out, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return out, nil
}

func (f *Forwarder) accepted(status int) bool {
	if f.accept == nil {
		return status >= 200 && status < 300
	}
	_, ok := f.accept[status]
	return ok
}

// Close closes forwarder and cleans up resources
func (f *Forwarder) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	if transport, ok := f.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

func positiveOrDefault(value, def int) int {
	if value > 0 {
		return value
	}
	return def
}

func durationOrDefault(value, def time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return def
}
