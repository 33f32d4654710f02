package kafka

import (
	"context"
	"encoding/json"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/config"
	"github.com/yokitheyo/avatarservice/internal/dto"
	"github.com/yokitheyo/avatarservice/internal/retry"
)

type MessageHandler func(ctx context.Context, task *dto.AvatarJobTask) error

type Consumer struct {
	client  *wbfkafka.Consumer
	handler MessageHandler
	topic   string
}

func NewConsumer(cfg *config.KafkaConfig, handler MessageHandler) *Consumer {
	client := wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)

	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("group_id", cfg.GroupID).
		Msg("Kafka consumer initialized (wbf)")

	return &Consumer{
		client:  client,
		handler: handler,
		topic:   cfg.Topic,
	}
}

// Start consumes until ctx is done. A message is committed once its handler
// succeeds or once it is found unparseable; handler errors leave it for
// redelivery.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("Kafka consumer stopped")
			return nil
		default:
		}

		msg, err := c.client.FetchWithRetry(ctx, retry.FetchStrategy)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			zlog.Logger.Error().Err(err).Msg("Failed to fetch Kafka message")
			time.Sleep(time.Second)
			continue
		}

		var task dto.AvatarJobTask
		if err := json.Unmarshal(msg.Value, &task); err != nil || task.JobID == "" {
			zlog.Logger.Error().
				Err(err).
				Bytes("msg", msg.Value).
				Msg("Dropping malformed avatar job message")
			if err := c.client.Commit(ctx, msg); err != nil {
				zlog.Logger.Error().Err(err).Msg("Failed to commit malformed message")
			}
			continue
		}

		if err := c.handler(ctx, &task); err != nil {
			zlog.Logger.Error().
				Err(err).
				Str("job_id", task.JobID).
				Msg("Avatar job handling failed")
			continue
		}

		if err := c.client.Commit(ctx, msg); err != nil {
			zlog.Logger.Error().
				Err(err).
				Str("job_id", task.JobID).
				Msg("Failed to commit message")
			continue
		}

		zlog.Logger.Info().
			Str("job_id", task.JobID).
			Msg("Avatar job committed")
	}
}

func (c *Consumer) Close() error {
	if err := c.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka consumer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka consumer closed successfully")
	return nil
}
