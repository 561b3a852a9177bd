package service

import (
	"context"
	"sync"

	"memex-be/internal/pkg/logger"
	"memex-be/pkg/events"
	"memex-be/pkg/search"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("memex-be/internal/service")

type ISearchService interface {
	Search(ctx context.Context, query string, count int, filter search.SearchType) ([]search.Result, error)
	Regenerate(ctx context.Context, filter search.SearchType) ([]search.SearchType, error)
	Initialized() []search.SearchType
}

type searchService struct {
	router    *search.Router
	backends  search.Backends
	config    search.Config
	models    *search.Models
	publisher events.Publisher
	logger    logger.ILogger

	// regenerations run one at a time
	regenMu sync.Mutex
}

func NewSearchService(
	backends search.Backends,
	config search.Config,
	models *search.Models,
	publisher events.Publisher,
	logger logger.ILogger,
) ISearchService {
	return &searchService{
		router:    search.NewRouter(backends),
		backends:  backends,
		config:    config,
		models:    models,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *searchService) Search(ctx context.Context, query string, count int, filter search.SearchType) ([]search.Result, error) {
	results, err := s.router.Route(ctx, query, filter, count, s.models)
	if err != nil {
		s.logger.Error("SEARCH", "Search failed", map[string]interface{}{
			"type":  filter.String(),
			"error": err.Error(),
		})
		return nil, err
	}

	s.logger.Debug("SEARCH", "Search completed", map[string]interface{}{
		"type":    filter.String(),
		"count":   count,
		"results": len(results),
	})
	return results, nil
}

func (s *searchService) Regenerate(ctx context.Context, filter search.SearchType) ([]search.SearchType, error) {
	s.regenMu.Lock()
	defer s.regenMu.Unlock()

	ctx, span := tracer.Start(ctx, "search.regenerate")
	defer span.End()

	rebuilt, err := search.Regenerate(ctx, s.backends, filter, s.config, s.models)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("REGENERATE", "Regeneration failed", map[string]interface{}{
			"type":  filter.String(),
			"error": err.Error(),
		})
		return nil, err
	}

	s.logger.Info("REGENERATE", "Regeneration completed", map[string]interface{}{
		"type":    filter.String(),
		"rebuilt": rebuilt,
	})

	evt := events.New(events.TypeIndexRegenerated, map[string]interface{}{
		"filter":  filter.String(),
		"rebuilt": rebuilt,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("EVENTS", "Failed to publish INDEX_REGENERATED event", map[string]interface{}{"error": err.Error()})
	}
	return rebuilt, nil
}

func (s *searchService) Initialized() []search.SearchType {
	return s.models.Initialized()
}
