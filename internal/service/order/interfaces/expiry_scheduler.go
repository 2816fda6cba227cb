// internal/service/order/interfaces/expiry_scheduler.go
package interfaces

import (
	"context"
	"sync"
	"time"

	"teahouse/internal/pkg/logger"
)

// UnpaidOrderExpirer 是过期未支付订单的业务处理入口
type UnpaidOrderExpirer interface {
	ExpireUnpaidOrders(ctx context.Context, cutoff time.Time, batch int) (int, error)
}

const expiryBatchSize = 100

// ExpiryScheduler 定时轮询，取消超过支付时限的待支付订单。
type ExpiryScheduler struct {
	expirer  UnpaidOrderExpirer
	window   time.Duration // 支付时限
	interval time.Duration // 轮询周期
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewExpiryScheduler(expirer UnpaidOrderExpirer, window, interval time.Duration) *ExpiryScheduler {
	return &ExpiryScheduler{expirer: expirer, window: window, interval: interval, now: time.Now}
}

// Start 启动轮询，立即返回。window 为 0 时不启动。
func (s *ExpiryScheduler) Start(ctx context.Context) error {
	if s.window <= 0 || s.interval <= 0 {
		logger.Ctx(ctx).Info().Msg("Unpaid order expiry disabled")
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logger.Ctx(ctx).Info().Dur("window", s.window).Dur("interval", s.interval).Msg("Unpaid order expiry started")
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *ExpiryScheduler) Stop(ctx context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	logger.Ctx(ctx).Info().Msg("Unpaid order expiry stopped")
}

// sweep 一直处理到某一批不满为止，积压较多时不必等下一个周期。
func (s *ExpiryScheduler) sweep(ctx context.Context) {
	cutoff := s.now().UTC().Add(-s.window)
	for ctx.Err() == nil {
		n, err := s.expirer.ExpireUnpaidOrders(ctx, cutoff, expiryBatchSize)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("expire unpaid orders failed, waiting for next tick")
			return
		}
		if n > 0 {
			logger.Ctx(ctx).Info().Int("count", n).Msg("unpaid orders expired")
		}
		if n < expiryBatchSize {
			return
		}
	}
}
