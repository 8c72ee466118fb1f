// FILE: pkg/llm/factory/factory.go
// PURPOSE: Build the configured LLM backend

package factory

import (
	"fmt"

	"ai-kindergarten-be/pkg/llm"
	"ai-kindergarten-be/pkg/llm/huggingface"
	"ai-kindergarten-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
