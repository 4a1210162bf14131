// Package version tracks which rapidkit version a workspace runs and
// whether a newer one is published, caching the answer per workspace.
package version

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rapidkit/rkws/internal/bridge"
)

// Status is the derived health of a workspace's tool install.
type Status string

const (
	StatusUpToDate        Status = "up-to-date"
	StatusUpdateAvailable Status = "update-available"
	StatusDeprecated      Status = "deprecated"
	StatusNotInstalled    Status = "not-installed"
	StatusError           Status = "error"
)

// Location says where the installed version was found.
type Location string

const (
	LocationWorkspace Location = "workspace"
	LocationGlobal    Location = "global"
)

// Info is a cached version/health result.
type Info struct {
	Installed string   `json:"installed,omitempty"`
	Latest    string   `json:"latest,omitempty"`
	Status    Status   `json:"status"`
	Location  Location `json:"location,omitempty"`
	// Path is the executable that reported Installed.
	Path string `json:"path,omitempty"`
	// Stale is set when a refresh failed and an older result was served.
	Stale     bool      `json:"stale,omitempty"`
	Timestamp time.Time `json:"-"`
}

// Prober runs single runtime tiers. *bridge.Bridge satisfies it.
type Prober interface {
	Locate(tier bridge.Tier, workspacePath string) (string, bool)
	RunTier(ctx context.Context, tier bridge.Tier, args []string, workspacePath string) (*bridge.Result, error)
}

// Options configures a Cache. Zero values get defaults.
type Options struct {
	// TTL is how long a result is served without probing. Default 5m.
	TTL time.Duration
	// ProbeTimeout bounds each --version call. Default 5s.
	ProbeTimeout time.Duration
	// LatestTimeout bounds the package index lookup. Default 3s.
	LatestTimeout time.Duration
	// MinSupported marks older installs as deprecated when set.
	MinSupported string
	// Now is the clock. Default time.Now.
	Now func() time.Time
}

// Defaults for Options.
const (
	DefaultTTL           = 5 * time.Minute
	DefaultProbeTimeout  = 5 * time.Second
	DefaultLatestTimeout = 3 * time.Second
)

// probeTiers are the tiers that can report an installed version. The
// fetch-on-demand tier installs nothing and is never probed.
var probeTiers = []bridge.Tier{bridge.TierWorkspace, bridge.TierGlobal}

// Cache holds per-workspace version info, keyed by workspace path. The
// empty key is the no-workspace context.
type Cache struct {
	prober Prober
	latest LatestFetcher
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]Info
	group   singleflight.Group
}

// NewCache creates a Cache. latest may be nil to skip update checks.
func NewCache(prober Prober, latest LatestFetcher, opts Options, logger *slog.Logger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.LatestTimeout <= 0 {
		opts.LatestTimeout = DefaultLatestTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		prober:  prober,
		latest:  latest,
		opts:    opts,
		logger:  logger.With("component", "version"),
		entries: make(map[string]Info),
	}
}

// Get returns the version info for a workspace, probing only when there
// is no entry younger than the TTL. Concurrent calls for the same
// workspace share one probe.
func (c *Cache) Get(ctx context.Context, workspacePath string) Info {
	if info, ok := c.fresh(workspacePath); ok {
		return info
	}
	v, _, _ := c.group.Do(workspacePath, func() (any, error) {
		if info, ok := c.fresh(workspacePath); ok {
			return info, nil
		}
		return c.refresh(ctx, workspacePath), nil
	})
	return v.(Info)
}

// Invalidate drops the entries for the given workspaces, or every entry
// when called without arguments.
func (c *Cache) Invalidate(workspacePaths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(workspacePaths) == 0 {
		clear(c.entries)
		return
	}
	for _, p := range workspacePaths {
		delete(c.entries, p)
	}
}

func (c *Cache) fresh(workspacePath string) (Info, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.entries[workspacePath]
	if !ok || c.opts.Now().Sub(info.Timestamp) >= c.opts.TTL {
		return Info{}, false
	}
	return info, true
}

func (c *Cache) refresh(ctx context.Context, workspacePath string) Info {
	info, err := c.fetch(ctx, workspacePath)
	if err != nil {
		c.logger.Warn("version probe failed", "workspace", workspacePath, "error", err)

		c.mu.Lock()
		prev, ok := c.entries[workspacePath]
		c.mu.Unlock()
		if ok {
			prev.Stale = true
			return prev
		}
		return Info{Status: StatusError, Timestamp: c.opts.Now()}
	}

	c.mu.Lock()
	c.entries[workspacePath] = info
	c.mu.Unlock()
	return info
}

// fetch probes the installed version and, when there is one, the latest
// published version. A failing tier is skipped; only a canceled or expired
// caller context returns an error.
func (c *Cache) fetch(ctx context.Context, workspacePath string) (Info, error) {
	info := Info{Timestamp: c.opts.Now()}

	found, err := c.probeInstalled(ctx, workspacePath, &info)
	if err != nil {
		return Info{}, err
	}
	if !found {
		info.Status = StatusNotInstalled
		return info, nil
	}

	info.Status = StatusUpToDate
	if c.latest != nil {
		lctx, cancel := context.WithTimeout(ctx, c.opts.LatestTimeout)
		latest, err := c.latest.Latest(lctx)
		cancel()
		if err != nil {
			c.logger.Debug("latest version lookup failed", "error", err)
		} else {
			info.Latest = latest
		}
	}

	switch {
	case c.opts.MinSupported != "" && Compare(info.Installed, c.opts.MinSupported) < 0:
		info.Status = StatusDeprecated
	case info.Latest != "" && Compare(info.Latest, info.Installed) > 0:
		info.Status = StatusUpdateAvailable
	}
	return info, nil
}

func (c *Cache) probeInstalled(ctx context.Context, workspacePath string, info *Info) (bool, error) {
	for _, tier := range probeTiers {
		path, ok := c.prober.Locate(tier, workspacePath)
		if !ok {
			continue
		}

		pctx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
		res, err := c.prober.RunTier(pctx, tier, []string{"--version"}, workspacePath)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			c.logger.Debug("version probe skipped tier", "tier", tier.String(), "error", err)
			continue
		}
		if res.ExitCode != 0 {
			continue
		}

		v := Parse(res.Stdout)
		if v == "" {
			v = Parse(res.Stderr)
		}
		if v == "" {
			continue
		}
		info.Installed = v
		info.Path = path
		info.Location = LocationGlobal
		if tier == bridge.TierWorkspace {
			info.Location = LocationWorkspace
		}
		return true, nil
	}
	return false, nil
}
