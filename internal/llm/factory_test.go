package llm

import (
	"strings"
	"testing"
)

func TestCreateClientOpenAI(t *testing.T) {
	f := &Factory{OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o-mini"}

	client, err := f.CreateClient("openai")
	if err != nil {
		t.Fatalf("CreateClient(openai) error = %v", err)
	}
	if _, ok := client.(*OpenAIClient); !ok {
		t.Errorf("CreateClient(openai) returned %T, want *OpenAIClient", client)
	}
}

func TestCreateClientIsCaseInsensitive(t *testing.T) {
	f := &Factory{OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o-mini"}

	if _, err := f.CreateClient("OpenAI"); err != nil {
		t.Errorf("CreateClient(OpenAI) error = %v", err)
	}
}

func TestCreateClientRequiresOpenAIKey(t *testing.T) {
	f := &Factory{}

	_, err := f.CreateClient("openai")
	if err == nil {
		t.Fatal("CreateClient(openai) succeeded without an API key")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error %q does not mention the missing key", err)
	}
}

func TestCreateClientRequiresYandexCredentials(t *testing.T) {
	f := &Factory{}

	if _, err := f.CreateClient("yandex"); err == nil {
		t.Fatal("CreateClient(yandex) succeeded without credentials")
	}
}

func TestCreateClientUnknownProvider(t *testing.T) {
	f := &Factory{}

	if _, err := f.CreateClient("mistral"); err == nil {
		t.Fatal("CreateClient(mistral) succeeded, want error")
	}
}
