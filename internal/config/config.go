// FILE: internal/config/config.go
// PURPOSE: Environment-backed configuration for the assistant engine

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Engine   EngineConfig
	Jwt      JwtConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	OllamaBaseURL     string
	OllamaEmbedModel  string
	GeminiApiKey      string
	JinaApiKey        string
	LLMProvider       string // "ollama" or "huggingface"
	LLMModel          string // e.g. "qwen2.5", "llama3"
	LLMBaseURL        string
	LLMApiKey         string
}

// EngineConfig enumerates every routing knob explicitly. Unknown env keys
// are never passed through to the engine.
type EngineConfig struct {
	ThresholdT1         float64
	ThresholdT2         float64
	ConfidenceFloor     float64
	SimilarityThreshold float64
	SearchTopK          int
	SemanticCacheTTL    time.Duration
	ContextCacheTTL     time.Duration
	MemoryTTL           time.Duration
	MemoryMaxTurns      int
	DirectDeadline      time.Duration
	SemanticDeadline    time.Duration
	ComplexDeadline     time.Duration
	DictionaryDir       string
	OptimizeTopic       string
	StatsPushInterval   time.Duration
}

type JwtConfig struct {
	Secret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "assistant.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			GeminiApiKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JinaApiKey:        getEnv("JINA_API_KEY", ""),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "qwen2.5"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMApiKey:         getEnv("LLM_API_KEY", ""),
		},
		Engine: EngineConfig{
			ThresholdT1:         getEnvAsFloat("ENGINE_THRESHOLD_T1", 0.35),
			ThresholdT2:         getEnvAsFloat("ENGINE_THRESHOLD_T2", 0.8),
			ConfidenceFloor:     getEnvAsFloat("ENGINE_CONFIDENCE_FLOOR", 0.6),
			SimilarityThreshold: getEnvAsFloat("ENGINE_SIMILARITY_THRESHOLD", 0.82),
			SearchTopK:          getEnvAsInt("ENGINE_SEARCH_TOP_K", 3),
			SemanticCacheTTL:    getEnvAsDuration("ENGINE_SEMANTIC_CACHE_TTL", 30*time.Minute),
			ContextCacheTTL:     getEnvAsDuration("ENGINE_CONTEXT_CACHE_TTL", 2*time.Minute),
			MemoryTTL:           getEnvAsDuration("ENGINE_MEMORY_TTL", time.Hour),
			MemoryMaxTurns:      getEnvAsInt("ENGINE_MEMORY_MAX_TURNS", 5),
			DirectDeadline:      getEnvAsDuration("ENGINE_DIRECT_DEADLINE", 200*time.Millisecond),
			SemanticDeadline:    getEnvAsDuration("ENGINE_SEMANTIC_DEADLINE", 5*time.Second),
			ComplexDeadline:     getEnvAsDuration("ENGINE_COMPLEX_DEADLINE", 60*time.Second),
			DictionaryDir:       getEnv("ENGINE_DICTIONARY_DIR", ""),
			OptimizeTopic:       getEnv("ENGINE_OPTIMIZE_TOPIC", "engine.optimize"),
			StatsPushInterval:   getEnvAsDuration("ENGINE_STATS_PUSH_INTERVAL", 5*time.Second),
		},
		Jwt: JwtConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
