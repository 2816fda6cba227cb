package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"teahouse/internal/pkg/logger"
	"teahouse/internal/pkg/redis"
	"teahouse/internal/service/promotion/domain"
)

// CachedCouponRepository 在 Redis 中缓存按兑换码查询的优惠券。
// 核销走底层仓储的行锁事务，不读缓存，所以缓存过期前的短暂不一致只影响预校验。
type CachedCouponRepository struct {
	domain.CouponRepository
	redisClient *redis.Client
	ttl         time.Duration
}

func NewCachedCouponRepository(next domain.CouponRepository, redisClient *redis.Client, ttl time.Duration) *CachedCouponRepository {
	return &CachedCouponRepository{CouponRepository: next, redisClient: redisClient, ttl: ttl}
}

func couponCacheKey(code string) string {
	return fmt.Sprintf("coupon:code:{%s}", code)
}

func (r *CachedCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	key := couponCacheKey(code)
	rdb := r.redisClient.GetClient()

	raw, err := rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c domain.Coupon
		if jsonErr := json.Unmarshal(raw, &c); jsonErr == nil {
			return &c, nil
		}
		_ = rdb.Del(ctx, key).Err()
	case !redis.IsNil(err):
		// 缓存不可用时直接回源
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("coupon cache read failed")
	}

	c, err := r.CouponRepository.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(c); err == nil {
		if err := rdb.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("coupon cache write failed")
		}
	}
	return c, nil
}

// Update 写库成功后删除旧兑换码和新兑换码对应的缓存
func (r *CachedCouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	var oldCode string
	if prev, err := r.CouponRepository.FindByID(ctx, coupon.ID); err == nil {
		oldCode = prev.Code
	}
	if err := r.CouponRepository.Update(ctx, coupon); err != nil {
		return err
	}
	r.invalidate(ctx, oldCode, coupon.Code)
	return nil
}

func (r *CachedCouponRepository) invalidate(ctx context.Context, codes ...string) {
	keys := make([]string, 0, len(codes))
	for _, code := range codes {
		if code != "" {
			keys = append(keys, couponCacheKey(code))
		}
	}
	if len(keys) == 0 {
		return
	}
	// 集群模式下多个 key 可能不在同一个 slot，逐个删除
	for _, key := range keys {
		if err := r.redisClient.GetClient().Del(ctx, key).Err(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("coupon cache invalidation failed")
		}
	}
}
