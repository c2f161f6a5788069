package backend

import (
	"context"
	"fmt"
	"io"

	"brewtrack/internal/amqp"
	"brewtrack/internal/log"
	"brewtrack/internal/services"
	"brewtrack/internal/storage"
	"brewtrack/internal/store"
	"brewtrack/internal/store/memory"
	"brewtrack/internal/store/rest"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend builds the gateway for config.Type and, when an AMQP URL is
// configured, wraps it so every successful mutation is published.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		gw  store.Gateway
		err error
	)
	switch config.Type {
	case MemoryBackend:
		gw = memory.New()
		f.logger.Info("Initialized memory backend")
	case RemoteBackend:
		gw = rest.New(config.APIBaseURL, config.APITimeout).WithLogger(f.logger)
		f.logger.Info("Initialized remote backend",
			"base_url", config.APIBaseURL,
			"timeout", config.APITimeout)
	case SQLiteBackend:
		gw, err = storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{
		Gateway:     gw,
		Suggestions: store.LoadSuggestions(config.DataDirectory),
		Cleanup:     closerFunc(gw),
	}

	if config.AMQPURL == "" {
		return result, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return result, nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	events := services.NewEventGateway(gw, client, f.logger)
	result.Gateway = events
	result.Cleanup = events.Close
	return result, nil
}

func closerFunc(v any) CleanupFunc {
	if c, ok := v.(io.Closer); ok {
		return c.Close
	}
	return nil
}
