package cli

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// StoreOptions selects and decorates the execution store.
type StoreOptions struct {
	// URL is "memory", "file:<dir>" or a redis:// URL. Empty means memory.
	URL string
	// TTL expires Redis executions. Zero keeps them.
	TTL time.Duration
	// EncryptionKeys are base64 AES-256 keys; the first encrypts, the rest
	// only decrypt.
	EncryptionKeys []string
	// MaskPatterns are key patterns whose values are masked before saving.
	MaskPatterns []string
}

// Persistence is the opened store plus the locker that goes with it.
type Persistence struct {
	Store  ports.ExecutionStore
	Locker ports.DistributedLocker
	Kind   string
}

// OpenStore opens the store named by opts.URL and wraps it with the
// requested middlewares. Masking runs before encryption.
func OpenStore(opts StoreOptions, logger *slog.Logger) (*Persistence, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Persistence{}
	switch u := opts.URL; {
	case u == "" || u == "memory":
		p.Kind = "memory"
		p.Store = memory.NewStore()
	case strings.HasPrefix(u, "file:"):
		p.Kind = "file"
		p.Store = file.New(strings.TrimPrefix(u, "file:"))
	case strings.HasPrefix(u, "redis://"), strings.HasPrefix(u, "rediss://"):
		o, err := backend.ParseURL(u)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := backend.NewClient(o)
		p.Kind = "redis"
		p.Store = redis.NewFromClient(client, redis.WithTTL(opts.TTL))
		p.Locker = redis.NewLocker(client, redis.DefaultPrefix)
	default:
		return nil, fmt.Errorf("unknown store %q (want memory, file:<dir> or redis://...)", u)
	}

	var mws []middleware.Middleware
	if len(opts.MaskPatterns) > 0 {
		for _, pat := range opts.MaskPatterns {
			if _, err := regexp.Compile(pat); err != nil {
				return nil, fmt.Errorf("invalid mask pattern: %w", err)
			}
		}
		mws = append(mws, middleware.NewPIIMiddleware(opts.MaskPatterns))
	}
	if len(opts.EncryptionKeys) > 0 {
		cfg, err := encryptionConfig(opts.EncryptionKeys)
		if err != nil {
			return nil, err
		}
		encryption, err := middleware.NewEncryption(cfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, encryption)
	}
	p.Store = middleware.Chain(p.Store, mws...)
	logger.Debug("execution store opened", "kind", p.Kind, "masked", len(opts.MaskPatterns), "encrypted", len(opts.EncryptionKeys) > 0)
	return p, nil
}

func encryptionConfig(keys []string) (middleware.EncryptionConfig, error) {
	var cfg middleware.EncryptionConfig
	for i, k := range keys {
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(k))
		if err != nil {
			return cfg, fmt.Errorf("encryption key %d: %w", i, err)
		}
		if len(raw) != middleware.KeySize {
			return cfg, fmt.Errorf("encryption key %d: want %d bytes, got %d", i, middleware.KeySize, len(raw))
		}
		if i == 0 {
			cfg.ActiveKey = raw
		} else {
			cfg.FallbackKeys = append(cfg.FallbackKeys, raw)
		}
	}
	return cfg, nil
}
