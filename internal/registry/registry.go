// Package registry fetches externally hosted packages by bare name.
//
// Each name is fetched as {base}/{name}, which for unpkg-style CDNs resolves
// to the package's main file. Fetches are rate limited, guarded by a circuit
// breaker and cached in an LRU. A failed fetch affects only that name: the
// build goes on and the name stays unresolved at require time.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/infrastructure/httpclient"
)

var (
	// ErrInvalidName rejects names that cannot be a package specifier
	ErrInvalidName = errors.New("invalid package name")
	// ErrNotFound is returned when the registry has no such package
	ErrNotFound = errors.New("package not found")
)

var validName = regexp.MustCompile(`^(@[a-z0-9][\w.~-]*/)?[a-z0-9][\w.~-]*(@[\w.^~<>=*-]+)?(/[\w.@~-]+)*$`)

// Package is the outcome of fetching one name
type Package struct {
	Name string `json:"name"`
	Code string `json:"-"`
	Err  error  `json:"-"`
}

// OK reports whether the package was fetched
func (p Package) OK() bool {
	return p.Err == nil
}

// Observer receives one call per network fetch
type Observer func(name string, elapsed time.Duration, err error)

// Config configures a Client
type Config struct {
	BaseURL     string
	CacheSize   int
	Concurrency int
	MaxBytes    int
}

// Client fetches packages from a remote registry
type Client struct {
	http    *httpclient.Client
	cache   *lru.Cache[string, string]
	cfg     Config
	logger  *zap.Logger
	observe Observer
}

// New creates a client. The base URL of cfg overrides the http client's.
func New(cfg Config, httpc *httpclient.Client, logger *zap.Logger, observe Observer) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://unpkg.com"
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 5 * 1024 * 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("registry cache: %w", err)
	}
	return &Client{http: httpc, cache: cache, cfg: cfg, logger: logger, observe: observe}, nil
}

// Fetch returns the code of one package, from cache when possible
func (c *Client) Fetch(ctx context.Context, name string) (string, error) {
	if !validName.MatchString(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if code, ok := c.cache.Get(name); ok {
		return code, nil
	}

	start := time.Now()
	code, err := c.fetch(ctx, name)
	if c.observe != nil {
		c.observe(name, time.Since(start), err)
	}
	if err != nil {
		return "", err
	}
	c.cache.Add(name, code)
	return code, nil
}

func (c *Client) fetch(ctx context.Context, name string) (string, error) {
	req, err := c.http.Request(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", name, err)
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + name
	resp, err := c.http.Do(func() (*resty.Response, error) {
		return req.SetHeader("Accept", "application/javascript, */*").Get(url)
	})
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", name, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	case resp.StatusCode() != http.StatusOK:
		return "", fmt.Errorf("fetch %s: status %d", name, resp.StatusCode())
	case len(resp.Body()) > c.cfg.MaxBytes:
		return "", fmt.Errorf("fetch %s: %d bytes exceeds limit of %d", name, len(resp.Body()), c.cfg.MaxBytes)
	}
	return string(resp.Body()), nil
}

// Preload fetches every name and returns one Package per name, in input
// order. Failures are carried on the Package and logged, never returned.
func (c *Client) Preload(ctx context.Context, names []string) []Package {
	out := make([]Package, len(names))
	sem := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				out[i] = Package{Name: name, Err: ctx.Err()}
				return
			}
			code, err := c.Fetch(ctx, name)
			out[i] = Package{Name: name, Code: code, Err: err}
			if err != nil {
				c.logger.Warn("Package preload failed", zap.String("package", name), zap.Error(err))
			}
		}(i, name)
	}
	wg.Wait()
	return out
}

// Purge empties the package cache
func (c *Client) Purge() {
	c.cache.Purge()
}

// Cached returns the number of cached packages
func (c *Client) Cached() int {
	return c.cache.Len()
}
