// internal/service/order/interfaces/fulfillment_consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"teahouse/internal/pkg/logger"
	"teahouse/internal/pkg/mq"
	"teahouse/internal/service/order/domain"
)

// MessageReader 是 kafka.Reader 的最小抽象
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// FulfillmentProcessor 是履约事件的业务处理入口
type FulfillmentProcessor interface {
	HandleFulfillmentUpdate(ctx context.Context, update *domain.FulfillmentUpdate) error
}

const maxAttempts = 3

var (
	retryBackoff = 500 * time.Millisecond
	// fetchRetryDelay 是读取 broker 失败后的等待时间
	fetchRetryDelay = time.Second
)

// FulfillmentConsumerAdapter 是一个驱动适配器，它监听履约 topic 并驱动应用服务。
// 无法处理的消息转发到死信 topic 后提交，不阻塞后续消息。
type FulfillmentConsumerAdapter struct {
	reader     MessageReader
	processor  FulfillmentProcessor
	deadLetter mq.MessageWriter
	topic      string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewFulfillmentConsumerAdapter(reader MessageReader, topic string, processor FulfillmentProcessor, deadLetter mq.MessageWriter) *FulfillmentConsumerAdapter {
	return &FulfillmentConsumerAdapter{
		reader:     reader,
		processor:  processor,
		deadLetter: deadLetter,
		topic:      topic,
	}
}

// Start 开始监听Kafka主题，立即返回。
func (a *FulfillmentConsumerAdapter) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Ctx(ctx).Info().Str("topic", a.topic).Msg("Fulfillment consumer started")
		for {
			// 使用FetchMessage而不是ReadMessage，处理完成后再提交 offset
			msg, err := a.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Ctx(ctx).Info().Msg("Fulfillment consumer shutting down")
					return
				}
				logger.Ctx(ctx).Error().Err(err).Msg("could not read message, retrying")
				sleep(ctx, fetchRetryDelay)
				continue
			}

			a.processMessage(mq.ExtractTraceContext(ctx, msg.Headers), msg)

			if err := a.reader.CommitMessages(ctx, msg); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to commit messages")
			}
		}
	}()
	return nil
}

// Stop 优雅地停止消费者。
func (a *FulfillmentConsumerAdapter) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	if err := a.reader.Close(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("close fulfillment reader")
	}
	logger.Ctx(ctx).Info().Str("topic", a.topic).Msg("Fulfillment consumer stopped")
}

// processMessage 反序列化消息并调用应用服务，基础设施错误有限次重试。
func (a *FulfillmentConsumerAdapter) processMessage(ctx context.Context, msg kafka.Message) {
	var update domain.FulfillmentUpdate
	if err := json.Unmarshal(msg.Value, &update); err != nil {
		a.toDeadLetter(ctx, msg, err)
		return
	}
	if update.OrderID == "" {
		update.OrderID = string(msg.Key)
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = a.processor.HandleFulfillmentUpdate(ctx, &update)
		if err == nil || permanent(err) || ctx.Err() != nil {
			break
		}
		logger.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Str("order_id", update.OrderID).Msg("fulfillment update failed")
		sleep(ctx, retryBackoff*time.Duration(attempt))
	}
	if err != nil {
		a.toDeadLetter(ctx, msg, err)
	}
}

func (a *FulfillmentConsumerAdapter) toDeadLetter(ctx context.Context, msg kafka.Message, cause error) {
	logger.Ctx(ctx).Error().Err(cause).
		Str("key", string(msg.Key)).
		Int64("offset", msg.Offset).
		Msg("fulfillment message moved to dead letter topic")
	if a.deadLetter == nil {
		return
	}
	if err := mq.SendToDeadLetter(ctx, a.deadLetter, msg, cause); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("CRITICAL: failed to publish dead letter")
	}
}

// permanent 报告错误是否为重试也无法成功的业务错误
func permanent(err error) bool {
	return errors.Is(err, domain.ErrOrderNotFound) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrStatusConflict)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
