package institutions

import (
	"context"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/constvars"
	"schoolpay-service/internal/pkg/utils"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const settingsCacheKeyPrefix = "gateway_settings:"

// cachedSettingsProvider fronts the institution repository with a
// redis-backed TTL cache. Credentials change rarely; a stale read only
// delays a key rotation by one TTL window. Cache failures fall through
// to the database, never to the caller.
type cachedSettingsProvider struct {
	repository contracts.InstitutionRepository
	redis      contracts.RedisRepository
	ttl        time.Duration
	log        *zap.Logger
}

func NewCachedSettingsProvider(
	repository contracts.InstitutionRepository,
	redisRepository contracts.RedisRepository,
	ttlInMinutes int,
	log *zap.Logger,
) contracts.GatewaySettingsProvider {
	if ttlInMinutes <= 0 {
		ttlInMinutes = 10
	}
	return &cachedSettingsProvider{
		repository: repository,
		redis:      redisRepository,
		ttl:        time.Duration(ttlInMinutes) * time.Minute,
		log:        log,
	}
}

func (p *cachedSettingsProvider) GetGatewaySettings(ctx context.Context, institutionID string) (*models.GatewaySettings, error) {
	requestID := utils.RequestIDFromContext(ctx)
	key := settingsCacheKeyPrefix + institutionID

	cached, err := p.redis.Get(ctx, key)
	if err != nil {
		p.log.Warn("SettingsCache.Get failed, falling back to database",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingInstitutionIDKey, institutionID),
			zap.Error(err),
		)
	} else if cached != "" {
		var settings models.GatewaySettings
		if err := json.Unmarshal([]byte(cached), &settings); err == nil {
			return &settings, nil
		}
		_ = p.redis.Delete(ctx, key)
	}

	settings, err := p.repository.GetGatewaySettings(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, nil
	}

	raw, err := json.Marshal(settings)
	if err == nil {
		if err := p.redis.Set(ctx, key, string(raw), p.ttl); err != nil {
			p.log.Warn("SettingsCache.Set failed",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingInstitutionIDKey, institutionID),
				zap.Error(err),
			)
		}
	}

	return settings, nil
}
