package config

import (
	"os"
	"path/filepath"
	"sync"

	"log/slog"
)

// RootResolver resolves the cache/ledger root directory once per process.
// When neither the config nor the MKTCACHE_ROOT environment variable names a
// root, a platform-appropriate user cache directory is used and that fallback
// is logged exactly once at INFO. The once-state is held here explicitly so
// tests can construct fresh resolvers instead of fighting a package global.
type RootResolver struct {
	configured string
	logger     *slog.Logger

	once   sync.Once
	cached string
}

// NewRootResolver creates a resolver. configured may be empty, in which case
// the environment variable and then the user cache directory are consulted.
func NewRootResolver(configured string, logger *slog.Logger) *RootResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &RootResolver{configured: configured, logger: logger}
}

// Resolve returns the root directory path. An empty return means no usable
// location exists, which callers treat as "caching disabled", never as an
// error.
func (r *RootResolver) Resolve() string {
	r.once.Do(func() {
		if r.configured != "" {
			r.cached = r.configured
			return
		}
		if env := os.Getenv(EnvRoot); env != "" {
			r.cached = env
			return
		}
		base, err := os.UserCacheDir()
		if err != nil {
			// Last resort: working directory.
			if wd, werr := os.Getwd(); werr == nil {
				base = wd
			} else {
				return
			}
		}
		r.cached = filepath.Join(base, "mktcache")
		r.logger.Info("cache root not set, using default location",
			"root", r.cached,
			"env_var", EnvRoot)
	})
	return r.cached
}
