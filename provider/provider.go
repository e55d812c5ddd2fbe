package provider

import (
	"context"
	"errors"

	"github.com/ecopulse/ecopulse/config"
	"github.com/ecopulse/ecopulse/models"
	gemini_provider "github.com/ecopulse/ecopulse/provider/gemini"
)

// Client represents different generative search providers
type Client string

const (
	Gemini    Client = "gemini"
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Provider is the interface every generative search implementation satisfies.
// All methods are pure request/response; normalization and cost accounting
// happen in the enrichment layer.
type Provider interface {
	Discover(ctx context.Context, req models.DiscoverRequest) (models.ModelResponse, error)
	ExtractFromURL(ctx context.Context, url, pageTitle, pageText string) (models.ModelResponse, error)
	GenerateReport(ctx context.Context, rec models.NewsRecord) (models.ModelResponse, error)
	GenerateImage(ctx context.Context, rec models.NewsRecord) (models.ModelResponse, error)
	ResearchContacts(ctx context.Context, rec models.NewsRecord) (models.ModelResponse, error)
}

// NewProvider creates a provider client from configuration
func NewProvider(client Client, cfg config.LLMConfig) (Provider, error) {
	switch client {
	case Gemini:
		if cfg.APIKey == "" {
			return nil, errors.New("llm.api_key not set")
		}
		return gemini_provider.NewClient(
			cfg.APIKey,
			cfg.BaseURL,
			gemini_provider.Models{
				Search:  cfg.SearchModel,
				Report:  cfg.ReportModel,
				Image:   cfg.ImageModel,
				Contact: cfg.ContactModel,
			},
			cfg.Timeout,
		), nil
	case OpenAI:
		return nil, errors.New("openai client not implemented yet")
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported provider")
	}
}
