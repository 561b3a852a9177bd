package embedding

import "fmt"

// NewEmbedder builds the provider named by providerType.
func NewEmbedder(providerType, model, ollamaBaseURL, openaiAPIKey string) (Embedder, error) {
	switch providerType {
	case "ollama", "":
		return NewOllamaProvider(ollamaBaseURL, model)
	case "openai":
		if openaiAPIKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires an api key")
		}
		return NewOpenAIProvider(openaiAPIKey, model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
