package qa

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dgallion1/docqa/internal/config"
)

// NewFactory returns a Factory for the configured provider. Nothing is
// contacted until the factory runs.
func NewFactory(cfg config.OracleConfig, log *zap.Logger) (Factory, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Provider {
	case "huggingface":
		return func(ctx context.Context) (Oracle, error) {
			log.Info("oracle ready", zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))
			return NewHuggingFace(cfg.BaseURL, cfg.Model, cfg.APIKey, &http.Client{}), nil
		}, nil
	case "ollama":
		return func(ctx context.Context) (Oracle, error) {
			o, err := NewOllama(cfg.BaseURL, cfg.Model, nil)
			if err != nil {
				return nil, err
			}
			if err := o.Check(ctx); err != nil {
				return nil, err
			}
			log.Info("oracle ready", zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))
			return o, nil
		}, nil
	case "openai":
		return func(ctx context.Context) (Oracle, error) {
			log.Info("oracle ready", zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))
			return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
		}, nil
	case "mock":
		return func(ctx context.Context) (Oracle, error) {
			log.Info("oracle ready", zap.String("provider", cfg.Provider))
			return Mock{}, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}

// New wires the configured provider behind a Lazy and an Adapter.
func New(cfg config.OracleConfig, log *zap.Logger) (*Adapter, error) {
	factory, err := NewFactory(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewAdapter(NewLazy(factory), AdapterConfig{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		Timeout:  cfg.Timeout,
		Retry:    cfg.Retry,
		Logger:   log,
	}), nil
}
