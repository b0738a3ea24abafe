package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/adapters/assistant"
	"github.com/PabloGalante/farmdash/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/farmdash/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/farmdash/internal/adapters/storage/memory"
	"github.com/PabloGalante/farmdash/internal/adapters/weather"
	"github.com/PabloGalante/farmdash/internal/config"
	"github.com/PabloGalante/farmdash/internal/domain"
)

func buildLLM(ctx context.Context, c *config.Config) (domain.LLMClient, error) {
	switch c.LLM.Backend {
	case config.LLMBackendVertex:
		logger.Info("using Vertex LLM client",
			zap.String("project", c.LLM.GCPProjectID),
			zap.String("model", c.LLM.ModelName))
		return llm.NewVertexClient(ctx, llm.VertexConfig{
			ProjectID: c.LLM.GCPProjectID,
			Location:  c.LLM.GCPLocation,
			ModelName: c.LLM.ModelName,
		})
	default:
		logger.Info("using mock LLM client")
		return llm.NewMockLLM(), nil
	}
}

// buildArchive returns a nil archive for the none backend. The returned
// close func is never nil.
func buildArchive(ctx context.Context, c *config.Config) (domain.TranscriptArchive, func() error, error) {
	noop := func() error { return nil }

	switch c.Archive.Backend {
	case config.ArchiveFirestore:
		logger.Info("archiving transcripts to Firestore", zap.String("project", c.Archive.GCPProjectID))
		fs, err := firestorestore.NewStore(ctx, c.Archive.GCPProjectID)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to init Firestore archive: %w", err)
		}
		return fs, fs.Close, nil
	case config.ArchiveMemory:
		logger.Info("archiving transcripts in memory")
		return memstore.NewTranscriptStore(), noop, nil
	default:
		return nil, noop, nil
	}
}

func buildGateway(c *config.Config, locale string) *assistant.Gateway {
	return assistant.NewGateway(c.Assistant.Endpoint,
		assistant.WithTimeout(c.AssistantTimeout()),
		assistant.WithLocale(locale),
	)
}

func buildWeather(c *config.Config) domain.WeatherSource {
	if c.Weather.UpstreamURL == "" {
		return nil
	}
	return weather.NewClient(c.Weather.UpstreamURL, c.WeatherTimeout(), nil)
}
