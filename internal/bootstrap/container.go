package bootstrap

import (
	"context"
	"fmt"

	"memex-be/internal/config"
	"memex-be/internal/controller"
	"memex-be/internal/pkg/logger"
	"memex-be/internal/service"
	"memex-be/pkg/conversation"
	"memex-be/pkg/embedding"
	"memex-be/pkg/events"
	"memex-be/pkg/llm/factory"
	"memex-be/pkg/search"
	"memex-be/pkg/search/asymmetric"
	"memex-be/pkg/search/image"
	"memex-be/pkg/search/index"
	"memex-be/pkg/search/ledger"

	pktNats "memex-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
)

const defaultConversationLog = "~/.memex/conversation.json"

type Container struct {
	Logger logger.ILogger

	// Controllers
	SearchController controller.ISearchController
	ChatController   controller.IChatController

	// Services driven by main.go
	SearchService  service.ISearchService
	SessionService service.ISessionService
	AuditService   service.IAuditService

	closers []func()
}

// NewContainer wires every component. Search indexes are built (or loaded)
// before it returns, and the conversation log is restored.
func NewContainer(ctx context.Context, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	bus := events.NewChannelBus(watermillLogger)
	c.closers = append(c.closers, func() { _ = bus.Close() })

	publishers := events.Fanout{bus}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			publishers = append(publishers, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 2. AI Providers
	conversationFile := cfg.Search.Processor.Conversation
	apiKey := cfg.Keys.OpenAI
	llmModel := cfg.Ai.LLMModel
	if conversationFile != nil {
		if apiKey == "" {
			apiKey = conversationFile.OpenAIAPIKey
		}
		if conversationFile.Model != "" {
			llmModel = conversationFile.Model
		}
	}

	baseEmbedder, err := embedding.NewEmbedder(cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel, cfg.Ai.OllamaBaseURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	embedder := embedding.NewCachedEmbedder(baseEmbedder, cfg.Ai.EmbeddingCacheTTL)
	sysLogger.Info("BOOTSTRAP", "Embedding provider ready", map[string]interface{}{"model": embedder.Model()})

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, llmModel, cfg.Ai.OllamaBaseURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    llmModel,
	})
	processor := conversation.NewLLMProcessor(llmProvider)

	// 3. Search Backends
	backends := search.Backends{
		search.Notes:  asymmetric.New(embedder),
		search.Music:  asymmetric.New(embedder),
		search.Ledger: ledger.New(embedder),
		search.Image:  image.New(embedder),
	}
	searchConfig := cfg.Search.SearchConfig()

	models, err := search.Initialize(ctx, backends, searchConfig, cfg.App.Regenerate)
	if err != nil {
		return nil, fmt.Errorf("init search models: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "Search models initialized", map[string]interface{}{
		"backends":   models.Initialized(),
		"regenerate": cfg.App.Regenerate,
	})

	// 4. Conversation Log Store
	store, err := newLogStore(ctx, cfg, sysLogger, c)
	if err != nil {
		return nil, err
	}

	// 5. Services
	searchService := service.NewSearchService(backends, searchConfig, models, publishers, sysLogger)
	sessionService, err := service.NewSessionService(ctx, store, processor, publishers, sysLogger)
	if err != nil {
		return nil, err
	}
	chatService := service.NewChatService(processor, searchService, sessionService.State(), publishers, sysLogger)

	c.SearchService = searchService
	c.SessionService = sessionService
	c.AuditService = service.NewAuditService(bus, sysLogger)

	// 6. Controllers
	c.SearchController = controller.NewSearchController(searchService)
	c.ChatController = controller.NewChatController(chatService)

	return c, nil
}

// Close releases the event bus and broker connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func newLogStore(ctx context.Context, cfg *config.Config, sysLogger logger.ILogger, c *Container) (conversation.LogStore, error) {
	if cfg.Conversation.Store == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		sysLogger.Info("BOOTSTRAP", "Conversation log stored in Redis", nil)
		return conversation.NewRedisStore(rdb, cfg.Conversation.RedisKey), nil
	}

	path := cfg.Conversation.LogFile
	if path == "" && cfg.Search.Processor.Conversation != nil {
		path = cfg.Search.Processor.Conversation.ConversationLogfile
	}
	if path == "" {
		path = defaultConversationLog
	}
	store := conversation.NewFileStore(index.ExpandPath(path))
	sysLogger.Info("BOOTSTRAP", "Conversation log stored on disk", map[string]interface{}{"path": store.Path()})
	return store, nil
}
