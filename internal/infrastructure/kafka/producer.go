package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	wbfretry "github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/config"
	"github.com/yokitheyo/avatarservice/internal/domain"
	"github.com/yokitheyo/avatarservice/internal/dto"
	"github.com/yokitheyo/avatarservice/internal/retry"
)

type Producer struct {
	client   *wbfkafka.Producer
	topic    string
	strategy wbfretry.Strategy
}

func NewProducer(cfg *config.KafkaConfig) *Producer {
	client := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)
	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka producer initialized (wbf)")
	return &Producer{
		client:   client,
		topic:    cfg.Topic,
		strategy: retry.DefaultStrategy,
	}
}

func (p *Producer) PublishAvatarJob(ctx context.Context, jobID, userID string) error {
	task := dto.AvatarJobTask{JobID: jobID, UserID: userID}
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal avatar job task: %w", err)
	}

	if err := p.client.SendWithRetry(ctx, p.strategy, nil, data); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("job_id", jobID).
			Str("topic", p.topic).
			Msg("Failed to send Kafka message with retry")
		return fmt.Errorf("%w: %v", domain.ErrQueueFailed, err)
	}

	zlog.Logger.Info().
		Str("job_id", jobID).
		Str("user_id", userID).
		Msg("Avatar job published")
	return nil
}

func (p *Producer) Close() error {
	if err := p.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka producer closed successfully")
	return nil
}
