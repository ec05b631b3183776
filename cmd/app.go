package cmd

import (
	"fmt"

	"ticket_content_improver/config"
	"ticket_content_improver/images"
	"ticket_content_improver/improver"
	"ticket_content_improver/logging"
	"ticket_content_improver/sanitize"
	"ticket_content_improver/storage"
)

func buildImprover(cfg *config.Config, mock bool) (*improver.Improver, error) {
	llm, err := buildLLM(cfg, mock)
	if err != nil {
		return nil, err
	}
	builder := images.NewBuilder(storage.NewFS(cfg.Storage.Root), images.Options{
		MaxImages:    cfg.Images.MaxImages,
		MaxBytes:     cfg.Images.MaxBytes,
		PublicPrefix: cfg.Storage.PublicPrefix,
		Logger:       logging.GetLogger(),
	})
	return improver.New(llm, builder, sanitize.NewPolicy(), improver.Options{
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
		Logger:  logging.GetLogger(),
	})
}

func buildLLM(cfg *config.Config, mock bool) (improver.CompletionClient, error) {
	if mock || cfg.LLM.Provider == "mock" {
		logging.Info("using echo completion client")
		return improver.EchoClient{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, improver.ConfigurationError(err.Error())
	}
	logging.Info("completion client configured",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"api_key", logging.MaskSensitive(cfg.LLM.APIKey))
	switch cfg.LLM.Provider {
	case "openai", "deepseek":
		return improver.NewOpenAIClient(improver.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
