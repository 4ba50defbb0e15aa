// Package platform selects, once at startup, the storage, history and
// media backends that match the runtime the client imitates: a native
// device or a web browser.
package platform

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/cropdoc/internal/client/config"
	"github.com/dmitrijs2005/cropdoc/internal/client/history"
	"github.com/dmitrijs2005/cropdoc/internal/client/media"
	"github.com/dmitrijs2005/cropdoc/internal/client/securestore"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

const (
	storeFile    = "store.db"
	deviceKey    = "device.key"
	clientIDFile = "client_id"
)

// Adapter bundles the platform-specific collaborators.
type Adapter struct {
	Name     string
	BaseURL  string
	Store    securestore.Store
	History  history.Backend
	Attacher media.Attacher

	closers []func(context.Context) error
}

// BaseURL returns the API root for cfg: the override when set, otherwise
// http://<host>:<port>/api/ with the host chosen by platform.
func BaseURL(cfg *config.Config) string {
	if cfg.BaseURL != "" {
		if !strings.HasSuffix(cfg.BaseURL, "/") {
			return cfg.BaseURL + "/"
		}
		return cfg.BaseURL
	}
	host := cfg.NativeHost
	if cfg.Platform == config.PlatformWeb {
		host = cfg.WebHost
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Port)) + "/api/"
}

// New builds the adapter for cfg.Platform.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*Adapter, error) {
	log = log.With("platform", cfg.Platform)
	switch cfg.Platform {
	case config.PlatformNative:
		return newNative(ctx, cfg, log)
	case config.PlatformWeb:
		return newWeb(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown platform %q", cfg.Platform)
	}
}

func newNative(ctx context.Context, cfg *config.Config, log logging.Logger) (*Adapter, error) {
	a := &Adapter{
		Name:     config.PlatformNative,
		BaseURL:  BaseURL(cfg),
		History:  history.NewMemoryBackend(),
		Attacher: media.FileAttacher{},
	}

	store, err := openSQLite(ctx, cfg)
	if err != nil {
		log.Warn(ctx, "secure store unavailable, credentials will not survive restart", "error", err)
		a.Store = securestore.NewMemoryStore()
		return a, nil
	}
	a.Store = store
	a.closers = append(a.closers, func(context.Context) error { return store.Close() })
	return a, nil
}

func openSQLite(ctx context.Context, cfg *config.Config) (*securestore.SQLiteStore, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	secret := []byte(cfg.StoreSecret)
	if len(secret) == 0 {
		var err error
		secret, err = securestore.LoadDeviceSecret(filepath.Join(cfg.DataDir, deviceKey))
		if err != nil {
			return nil, fmt.Errorf("device key: %w", err)
		}
	}
	return securestore.OpenSQLite(ctx, filepath.Join(cfg.DataDir, storeFile), secret)
}

func newWeb(ctx context.Context, cfg *config.Config, log logging.Logger) (*Adapter, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	clientID, err := loadClientID(cfg)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	a := &Adapter{Name: config.PlatformWeb, BaseURL: BaseURL(cfg)}

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn(ctx, "redis unavailable, storage is in-memory for this run", "error", err)
		_ = rdb.Close()
		a.Store = securestore.NewMemoryStore()
		a.History = history.NewMemoryBackend()
	} else {
		sessionID := uuid.NewString()
		hb := history.NewRedisSessionBackend(rdb, cfg.RedisPrefix, sessionID, cfg.SessionTTL)
		a.Store = securestore.NewRedisStore(rdb, cfg.RedisPrefix, clientID)
		a.History = hb
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() }, hb.Close)
		log.Debug(ctx, "web storage ready", "client_id", clientID, "session_id", sessionID)
	}

	var s3 media.ObjectGetter
	if cfg.S3Endpoint != "" || cfg.S3AccessKey != "" {
		s3, err = media.NewS3Getter(ctx, media.S3Options{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			log.Warn(ctx, "s3 media references disabled", "error", err)
		}
	}
	httpc := resty.New().SetTimeout(cfg.RequestTimeout)
	a.Attacher = media.BlobAttacher{Resolver: media.NewBlobResolver(httpc, s3, log)}
	return a, nil
}

// loadClientID returns the configured client id, or one persisted in the
// data dir so browser-local keys survive restarts.
func loadClientID(cfg *config.Config) (string, error) {
	if cfg.ClientID != "" {
		return cfg.ClientID, nil
	}
	p := filepath.Join(cfg.DataDir, clientIDFile)
	b, err := os.ReadFile(p)
	if err == nil && len(strings.TrimSpace(string(b))) > 0 {
		return strings.TrimSpace(string(b)), nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read client id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(p, []byte(id), 0o600); err != nil {
		return "", fmt.Errorf("write client id: %w", err)
	}
	return id, nil
}

// Close releases backends in reverse order of acquisition. Session-scoped
// web history is deleted here.
func (a *Adapter) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
