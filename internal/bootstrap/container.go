package bootstrap

import (
	"context"
	"log"
	"os"

	"ai-kindergarten-be/internal/config"
	"ai-kindergarten-be/internal/controller"
	"ai-kindergarten-be/internal/pkg/logger"
	"ai-kindergarten-be/internal/repository/implementation"
	"ai-kindergarten-be/internal/service"
	"ai-kindergarten-be/internal/websocket"
	"ai-kindergarten-be/pkg/ai/complexity"
	"ai-kindergarten-be/pkg/ai/contextasm"
	"ai-kindergarten-be/pkg/ai/direct"
	"ai-kindergarten-be/pkg/ai/keyword"
	"ai-kindergarten-be/pkg/ai/router"
	"ai-kindergarten-be/pkg/ai/semantic"
	"ai-kindergarten-be/pkg/ai/stats"
	"ai-kindergarten-be/pkg/ai/vectorindex"
	"ai-kindergarten-be/pkg/embedding"
	"ai-kindergarten-be/pkg/embedding/jina"
	"ai-kindergarten-be/pkg/events"
	"ai-kindergarten-be/pkg/llm/factory"

	pktNats "ai-kindergarten-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController
	AdminController     controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WebSocketHub *websocket.Hub

	// Engine internals exposed for startup tasks
	VectorIndex      *vectorindex.Index
	KeywordProvider  *keyword.Provider
	AssistantService service.IAssistantService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	engineLogger := log.New(os.Stdout, "[ENGINE] ", log.LstdFlags)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize Embedding Provider based on Config
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbedModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.JinaApiKey)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// Initialize LLM Provider based on Config
	llmBaseURL := cfg.Ai.LLMBaseURL
	if llmBaseURL == "" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL,
		cfg.Ai.LLMApiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	var opsPublisher service.OpsPublisher
	if natsPub != nil {
		opsPublisher = natsPub
	}

	// Redis is optional; without it the semantic cache runs L1-only and
	// the stats hub stays single-node.
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/stats.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Relay ops events (rebuilds, flushes, reloads) to connected dashboards.
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}
	if natsSub != nil {
		err := natsSub.Subscribe("ops.>", "stats-dashboard", func(ctx context.Context, event events.Event) error {
			wsHub.Broadcast("ops", map[string]interface{}{
				"subject": event.EventType(),
				"payload": event.Payload(),
			})
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Ops event relay disabled: %v", err)
		}
	}

	// 3. Routing Engine
	keywordProvider := keyword.NewProvider(cfg.Engine.DictionaryDir, engineLogger)
	if cfg.Engine.DictionaryDir != "" {
		if err := keywordProvider.Watch(); err != nil {
			log.Printf("[WARN] Dictionary watch disabled: %v", err)
		}
	}

	evaluator, err := complexity.NewEvaluator(complexity.DefaultWeights(), complexity.Thresholds{
		T1: cfg.Engine.ThresholdT1,
		T2: cfg.Engine.ThresholdT2,
	})
	if err != nil {
		log.Fatalf("[FATAL] Invalid complexity thresholds: %v", err)
	}

	knowledgeRepo := implementation.NewKnowledgeRepository(db)
	corpusSource := service.NewKnowledgeCorpusSource(knowledgeRepo)
	vectorIndex := vectorindex.New(embeddingProvider, corpusSource, engineLogger)

	semanticCache := semantic.NewCache(cfg.Engine.SemanticCacheTTL, rdb, engineLogger)
	semanticEngine := semantic.NewEngine(embeddingProvider, vectorIndex, semanticCache, semantic.Config{
		SimilarityThreshold: cfg.Engine.SimilarityThreshold,
		TopK:                cfg.Engine.SearchTopK,
	}, engineLogger)

	directService := direct.NewService(keywordProvider, engineLogger)
	assembler := contextasm.New(
		keywordProvider,
		cfg.Engine.ContextCacheTTL,
		cfg.Engine.MemoryTTL,
		cfg.Engine.MemoryMaxTurns,
		engineLogger,
	)
	counters := stats.New()

	queryRouter := router.New(
		keywordProvider,
		evaluator,
		directService,
		semanticEngine,
		assembler,
		llmProvider,
		counters,
		router.Config{
			ConfidenceFloor:  cfg.Engine.ConfidenceFloor,
			DirectDeadline:   cfg.Engine.DirectDeadline,
			SemanticDeadline: cfg.Engine.SemanticDeadline,
			ComplexDeadline:  cfg.Engine.ComplexDeadline,
		},
		engineLogger,
	)

	// 4. Services
	assistantService := service.NewAssistantService(
		queryRouter,
		keywordProvider,
		directService,
		semanticEngine,
		assembler,
		vectorIndex,
		counters,
		opsPublisher,
		sysLogger,
	)
	optimizerService := service.NewOptimizerService(pubSub, cfg.Engine.OptimizeTopic, sysLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Engine.OptimizeTopic,
		keywordProvider,
		directService,
		semanticEngine,
		assembler,
		vectorIndex,
		opsPublisher,
	)

	// Push counter snapshots to connected dashboards.
	wsHub.StartCounterPush(cfg.Engine.StatsPushInterval, func() interface{} {
		return assistantService.CountersSnapshot()
	})

	// 5. Controllers
	return &Container{
		AssistantController: controller.NewAssistantController(assistantService, optimizerService, wsHub, sysLogger),
		AdminController:     controller.NewAdminController(assistantService, sysLogger),
		ConsumerService:     consumerService,
		WebSocketHub:        wsHub,
		VectorIndex:         vectorIndex,
		KeywordProvider:     keywordProvider,
		AssistantService:    assistantService,
	}
}
