package queue

import (
	"github.com/hibiken/asynq"

	"github.com/hollis/causeconnect/pkg/config"
)

// Queue names, in priority order. Password-reset mail goes out on
// QueueCritical because a waiting user is blocked on it; donation
// receipts ride QueueLow since nobody is refreshing their inbox for
// one.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

const defaultConcurrency = 10

func NewClient(cfg *config.RedisConfig) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	})
}

// NewServer builds the worker-side consumer. The weights give critical
// mail six slots for every one a low-priority receipt gets.
func NewServer(cfg *config.RedisConfig, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
		},
	)
}

func NewInspector(cfg *config.RedisConfig) *asynq.Inspector {
	return asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	})
}
