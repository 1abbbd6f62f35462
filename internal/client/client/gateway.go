package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/securebank/internal/client/session"
	"github.com/dmitrijs2005/securebank/internal/common"
	"github.com/dmitrijs2005/securebank/internal/logging"
	"github.com/google/uuid"
)

const maxResponseBody = 4 << 20

// Tokens is the part of session.TokenStore the gateway depends on.
type Tokens interface {
	Snapshot(ctx context.Context) session.Snapshot
	RemoveIfEpoch(ctx context.Context, epoch uint64) bool
}

// Request describes one outbound call. Body, when non-nil, is sent as JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Doer executes a Request and decodes a 2xx body into out (nil discards it).
type Doer interface {
	Do(ctx context.Context, req Request, out any) error
}

type Gateway struct {
	baseURL *url.URL
	http    *http.Client
	tokens  Tokens
	log     logging.Logger

	mu       sync.RWMutex
	listener SessionListener

	newRequestID func() string
}

type Option func(*Gateway)

// WithHTTPClient replaces the underlying client; its Timeout is kept as is.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.http = c }
}

func WithListener(l SessionListener) Option {
	return func(g *Gateway) { g.listener = l }
}

// NewGateway builds a gateway for the API rooted at baseURL. Every call is
// bounded by timeout.
func NewGateway(baseURL string, timeout time.Duration, tokens Tokens, log logging.Logger, opts ...Option) (*Gateway, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", baseURL)
	}
	if tokens == nil {
		return nil, errors.New("token store is required")
	}

	g := &Gateway{
		baseURL:      u,
		http:         &http.Client{Timeout: timeout},
		tokens:       tokens,
		log:          logging.OrDiscard(log),
		newRequestID: func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// SetListener installs the single consumer of session events.
func (g *Gateway) SetListener(l SessionListener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listener = l
}

func (g *Gateway) emit(ctx context.Context, ev SessionEvent) {
	g.mu.RLock()
	l := g.listener
	g.mu.RUnlock()

	g.log.Info(ctx, "session invalidated", "reason", string(ev.Reason), "path", ev.Path, "request_id", ev.RequestID)
	if l != nil {
		l.SessionInvalidated(ctx, ev)
	}
}

func (g *Gateway) Do(ctx context.Context, req Request, out any) error {
	reqID := g.newRequestID()
	log := g.log.With("method", req.Method, "path", req.Path, "request_id", reqID)

	// request phase
	snap := g.tokens.Snapshot(ctx)
	bearer := ""
	if snap.Present {
		if snap.Expired {
			if g.tokens.RemoveIfEpoch(ctx, snap.Epoch) {
				g.emit(ctx, SessionEvent{Reason: ReasonExpired, Method: req.Method, Path: req.Path, RequestID: reqID})
			}
		} else {
			bearer = snap.Token
		}
	}

	hreq, err := g.newHTTPRequest(ctx, req, reqID, bearer)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := g.http.Do(hreq)
	if err != nil {
		return g.transportFailure(ctx, log, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return g.transportFailure(ctx, log, err)
	}
	log.Debug(ctx, "request completed", "status", resp.StatusCode, "elapsed", time.Since(start), "authenticated", bearer != "")

	// response phase
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := decodeBody(body, out); err != nil {
			log.Warn(ctx, "undecodable response", "status", resp.StatusCode, "error", err)
			return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
		}
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body), RequestID: reqID}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if bearer != "" && g.tokens.RemoveIfEpoch(ctx, snap.Epoch) {
			g.emit(ctx, SessionEvent{Reason: ReasonRejected, Method: req.Method, Path: req.Path, RequestID: reqID})
		}
	case resp.StatusCode >= http.StatusInternalServerError:
		log.Error(ctx, "server error", "status", resp.StatusCode)
	}
	return apiErr
}

func (g *Gateway) newHTTPRequest(ctx context.Context, req Request, reqID, bearer string) (*http.Request, error) {
	u := g.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	hreq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	hreq.Header.Set("Accept", "application/json")
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	hreq.Header.Set(common.RequestIDHeader, reqID)
	if bearer != "" {
		hreq.Header.Set(common.AuthorizationHeader, common.BearerScheme+" "+bearer)
	}
	return hreq, nil
}

func (g *Gateway) transportFailure(ctx context.Context, log logging.Logger, err error) error {
	kind := KindNetworkUnreachable
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	}

	if kind == KindCanceled {
		log.Debug(ctx, "request canceled")
	} else {
		log.Error(ctx, "transport failure", "kind", kind, "error", err)
	}
	return &TransportError{Kind: kind, Err: err}
}

func decodeBody(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	err := json.Unmarshal(body, out)
	if err == nil {
		return nil
	}
	// some routes answer with bare text
	if s, ok := out.(*string); ok {
		*s = string(body)
		return nil
	}
	return err
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}
