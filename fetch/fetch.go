// Package fetch downloads the page an audit runs against. Transport failures
// are reported on the ScrapedPage rather than as errors so the controller can
// demote instead of aborting.
package fetch

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/seo-optimizer/traffic-engine/domains"
	"github.com/seo-optimizer/traffic-engine/signals"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 5 << 20
	DefaultCacheTTL = 30 * time.Minute
	UserAgent       = "TrafficEngine/1.0"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// CacheRecorder receives page cache hit and miss counts.
type CacheRecorder interface {
	RecordPageCache(hits, misses int)
}

type cacheEntry struct {
	page      signals.ScrapedPage
	timestamp time.Time
}

// Client fetches home pages over a pooled HTTP transport and keeps successful
// pages for a short while.
type Client struct {
	client          *http.Client
	maxBytes        int64
	cache           map[string]cacheEntry
	cacheMutex      sync.RWMutex
	cacheTTL        time.Duration
	maxCacheSize    int
	lastCleanup     time.Time
	cleanupInterval time.Duration
	cleaning        atomic.Bool
	recorder        CacheRecorder
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each fetch.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithMaxBytes limits how much of a body is read.
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithCacheTTL sets how long a fetched page is reused. Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

// WithRecorder reports cache hits and misses.
func WithRecorder(r CacheRecorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithHTTPClient replaces the pooled client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New creates a Client with connection pooling and keep-alive.
func New(opts ...Option) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	c := &Client{
		client:          &http.Client{Timeout: DefaultTimeout, Transport: transport},
		maxBytes:        DefaultMaxBytes,
		cache:           make(map[string]cacheEntry),
		cacheTTL:        DefaultCacheTTL,
		maxCacheSize:    1000,
		lastCleanup:     time.Now(),
		cleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URLFor turns a bare domain into the https home page URL.
func URLFor(domain string) string {
	d := strings.TrimSpace(domain)
	if strings.Contains(d, "://") {
		return d
	}
	return "https://" + domains.Normalize(d) + "/"
}

func cacheKey(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

// Fetch downloads the home page of domain. It never returns an error; failures
// are set on the page.
func (c *Client) Fetch(ctx context.Context, domain string) signals.ScrapedPage {
	url := URLFor(domain)
	key := cacheKey(url)

	if c.cacheTTL > 0 {
		c.cacheMutex.RLock()
		entry, found := c.cache[key]
		stale := time.Since(c.lastCleanup) > c.cleanupInterval
		c.cacheMutex.RUnlock()
		if stale {
			c.scheduleCleanup()
		}
		if found && time.Since(entry.timestamp) < c.cacheTTL {
			c.record(1, 0)
			return entry.page
		}
		c.record(0, 1)
	}

	page := c.fetch(ctx, url)
	if page.Error == "" && c.cacheTTL > 0 {
		c.cacheMutex.Lock()
		c.cache[key] = cacheEntry{page: page, timestamp: time.Now()}
		c.cacheMutex.Unlock()
	}
	return page
}

func (c *Client) fetch(ctx context.Context, url string) signals.ScrapedPage {
	page := signals.ScrapedPage{URL: url, Headers: map[string]string{}}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		page.Error = err.Error()
		return page
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		page.Error = err.Error()
		zap.L().Debug("fetch failed", zap.String("url", url), zap.Error(err))
		return page
	}
	defer resp.Body.Close()

	for name := range resp.Header {
		page.Headers[strings.ToLower(name)] = resp.Header.Get(name)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		page.Error = fmt.Sprintf("unexpected status code %d", resp.StatusCode)
		return page
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(resp.Body, c.maxBytes)); err != nil {
		page.Error = err.Error()
		return page
	}
	page.HTML = buf.String()

	zap.L().Debug("fetched page",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(page.HTML)),
		zap.Duration("elapsed", time.Since(start)))
	return page
}

func (c *Client) record(hits, misses int) {
	if c.recorder != nil {
		c.recorder.RecordPageCache(hits, misses)
	}
}

// scheduleCleanup starts a background cleanup unless one is already running.
func (c *Client) scheduleCleanup() bool {
	if !c.cleaning.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer c.cleaning.Store(false)
		c.cleanup()
	}()
	return true
}

// cleanup removes expired entries and keeps the cache under its size limit
func (c *Client) cleanup() {
	now := time.Now()

	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	c.lastCleanup = now

	for key, entry := range c.cache {
		if now.Sub(entry.timestamp) > c.cacheTTL {
			delete(c.cache, key)
		}
	}

	if len(c.cache) > c.maxCacheSize {
		type aged struct {
			key       string
			timestamp time.Time
		}
		entries := make([]aged, 0, len(c.cache))
		for key, entry := range c.cache {
			entries = append(entries, aged{key, entry.timestamp})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].timestamp.Before(entries[j].timestamp)
		})
		for i := 0; i < len(entries)-c.maxCacheSize; i++ {
			delete(c.cache, entries[i].key)
		}
	}
}

// ClearCache drops every cached page
func (c *Client) ClearCache() {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	c.cache = make(map[string]cacheEntry)
}
