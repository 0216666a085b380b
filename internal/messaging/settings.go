package messaging

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/dormitory-management/internal"
	goCache "github.com/patrickmn/go-cache"
)

// Settings holds the decrypted channel credentials.
type Settings struct {
	ChannelID string
	Secret    string
	Token     string
	UpdatedBy *int64
	UpdatedAt time.Time
}

// SettingsRepository persists the singleton encrypted settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

const settingsCacheKey = "messaging_settings"

// SettingsCache serves decrypted channel credentials with a short TTL so the
// bridge does not hit the database on every send. Writes to the settings go
// through Update, which invalidates the cache explicitly; reads are safe
// from any goroutine.
type SettingsCache struct {
	repo   SettingsRepository
	cache  *goCache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewSettingsCache(repo SettingsRepository, ttl time.Duration, logger *slog.Logger) *SettingsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SettingsCache{
		repo:   repo,
		cache:  goCache.New(ttl, 2*ttl),
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the current settings, from cache when fresh.
func (c *SettingsCache) Get(ctx context.Context) (*Settings, error) {
	if cached, ok := c.cache.Get(settingsCacheKey); ok {
		if s, ok := cached.(*Settings); ok {
			return s, nil
		}
	}

	s, err := c.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.ErrChannelNotConfigured
	}

	c.cache.Set(settingsCacheKey, s, c.ttl)
	return s, nil
}

// Update encrypts and persists new settings, then invalidates the cache so
// subsequently-started bridge calls see them.
func (c *SettingsCache) Update(ctx context.Context, s *Settings) error {
	if err := c.repo.Save(ctx, s); err != nil {
		c.logger.Error("failed to save messaging settings", "error", err)
		return err
	}
	c.Invalidate()
	c.logger.Info("messaging settings updated", "channel_id", s.ChannelID, "updated_by", s.UpdatedBy)
	return nil
}

func (c *SettingsCache) Invalidate() {
	c.cache.Delete(settingsCacheKey)
}
