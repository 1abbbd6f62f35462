// Package keys fetches and caches the server's public encryption key.
package keys

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/securebank/internal/client/client"
	"github.com/dmitrijs2005/securebank/internal/cryptox"
	"github.com/dmitrijs2005/securebank/internal/logging"
	"golang.org/x/sync/singleflight"
)

// ErrKeyUnavailable means the key could not be obtained from the server.
var ErrKeyUnavailable = errors.New("public key unavailable")

// Fetcher performs one key round trip.
type Fetcher interface {
	FetchPublicKey(ctx context.Context) (cryptox.PublicKey, error)
}

type FetcherFunc func(ctx context.Context) (cryptox.PublicKey, error)

func (f FetcherFunc) FetchPublicKey(ctx context.Context) (cryptox.PublicKey, error) {
	return f(ctx)
}

// GatewayFetcher reads the key from GET /security/public-key.
func GatewayFetcher(d client.Doer) Fetcher {
	return FetcherFunc(func(ctx context.Context) (cryptox.PublicKey, error) {
		resp, err := client.Call(ctx, d, client.PublicKeyEndpoint, client.NoParams{})
		if err != nil {
			return "", err
		}
		return cryptox.PublicKey(resp.PublicKey), nil
	})
}

// Provider memoizes the first successfully fetched key for its lifetime.
// Concurrent callers before the key resolves share one fetch. A failed fetch
// is not memoized; the next call tries again.
type Provider struct {
	fetcher Fetcher
	log     logging.Logger

	group singleflight.Group

	mu  sync.RWMutex
	key cryptox.PublicKey
}

func NewProvider(fetcher Fetcher, log logging.Logger) *Provider {
	return &Provider{fetcher: fetcher, log: logging.OrDiscard(log)}
}

// Cached returns the key if it has already been fetched.
func (p *Provider) Cached() (cryptox.PublicKey, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.key, p.key != ""
}

// PublicKey returns the cached key or fetches it.
func (p *Provider) PublicKey(ctx context.Context) (cryptox.PublicKey, error) {
	if k, ok := p.Cached(); ok {
		return k, nil
	}

	ch := p.group.DoChan("public-key", func() (any, error) {
		if k, ok := p.Cached(); ok {
			return k, nil
		}
		// detached so one caller's cancellation does not fail the others
		k, err := p.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.key = k
		p.mu.Unlock()
		return k, nil
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrKeyUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(cryptox.PublicKey), nil
	}
}

func (p *Provider) fetch(ctx context.Context) (cryptox.PublicKey, error) {
	k, err := p.fetcher.FetchPublicKey(ctx)
	if err != nil {
		p.log.Warn(ctx, "public key fetch failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrKeyUnavailable, err)
	}
	if strings.TrimSpace(string(k)) == "" {
		p.log.Warn(ctx, "public key missing from response")
		return "", fmt.Errorf("%w: response lacks publicKey", ErrKeyUnavailable)
	}
	p.log.Debug(ctx, "public key fetched")
	return k, nil
}
