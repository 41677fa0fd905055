package llm

import (
	"fmt"
	"strings"
)

// Provider names accepted by the factory.
const (
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

// Factory creates model clients with consistent configuration.
type Factory struct {
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	Temperature      float32
	YandexOAuthToken string
	YandexFolderID   string
}

// CreateClient builds the Client for the given provider name.
func (f *Factory) CreateClient(provider string) (Client, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		if f.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return NewOpenAI(f.OpenAIAPIKey, f.OpenAIBaseURL, f.OpenAIModel, f.Temperature), nil
	case ProviderYandex:
		if f.YandexOAuthToken == "" || f.YandexFolderID == "" {
			return nil, fmt.Errorf("yandex provider requires YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID")
		}
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
