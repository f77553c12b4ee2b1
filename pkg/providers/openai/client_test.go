package openai

import (
	"bytes"
	"context"
	"net/http"
	"reflect"
	"testing"
	"time"

	testhelpers "mercator-hq/courier/internal/providers"
	"mercator-hq/courier/pkg/providers"
)

func TestNewProvider(t *testing.T) {
	t.Run("base url required", func(t *testing.T) {
		config := testhelpers.TestConfig("openai", "openai")
		config.BaseURL = ""

		_, err := NewProvider(config)
		var configErr *providers.ConfigError
		testhelpers.AssertErrorAs(t, err, &configErr)
		if configErr.Field != "base_url" {
			t.Errorf("expected base_url field, got %q", configErr.Field)
		}
	})

	t.Run("defaults and trailing slash", func(t *testing.T) {
		config := testhelpers.TestConfigWithURL("", "", "http://localhost:1234/v1/")
		provider, err := NewProvider(config)
		testhelpers.AssertNoError(t, err)
		defer provider.Close()

		if provider.GetName() != "openai" || provider.GetType() != "openai" {
			t.Errorf("unexpected name/type %q/%q", provider.GetName(), provider.GetType())
		}
		if provider.GetConfig().BaseURL != "http://localhost:1234/v1" {
			t.Errorf("trailing slash not trimmed: %q", provider.GetConfig().BaseURL)
		}
	})

	t.Run("invalid proxy", func(t *testing.T) {
		config := testhelpers.TestConfigWithProxy("openai", "openai", "http://localhost/v1", "ftp://proxy")
		_, err := NewProvider(config)
		var configErr *providers.ConfigError
		testhelpers.AssertErrorAs(t, err, &configErr)
	})
}

func TestOpenAIProvider_SendCompletion(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockOpenAIResponse("Thank you! How can I help?", "gpt-3.5-turbo-0125"),
	})

	provider, err := NewProvider(testhelpers.TestConfigWithURL("openai", "openai", mock.URL()+"/v1"))
	testhelpers.AssertNoError(t, err)
	defer provider.Close()

	req := testhelpers.TestCompletionRequest("gpt-3.5-turbo",
		testhelpers.TestMessage(providers.RoleUser, "Hello, you are amazing."))

	resp, err := provider.SendCompletion(context.Background(), req)
	testhelpers.AssertNoError(t, err)

	if resp.Model != "gpt-3.5-turbo-0125" {
		t.Errorf("expected model gpt-3.5-turbo-0125, got %s", resp.Model)
	}
	if resp.Content != "Thank you! How can I help?" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 30 {
		t.Errorf("expected total tokens 30, got %d", resp.Usage.TotalTokens)
	}
	if resp.FinishReason != providers.FinishReasonStop {
		t.Errorf("expected finish reason %q, got %q", providers.FinishReasonStop, resp.FinishReason)
	}
	if resp.RequestID == "" {
		t.Error("expected request ID on response")
	}
	if !bytes.Contains(resp.Raw, []byte(`"chat.completion"`)) {
		t.Errorf("expected raw upstream body, got %s", resp.Raw)
	}

	recorded := mock.LastRequest()
	if recorded.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", recorded.Method)
	}
	if err := testhelpers.ExpectHeader(recorded, "Authorization", "Bearer test-key"); err != nil {
		t.Error(err)
	}
	if err := testhelpers.ExpectHeader(recorded, providers.HeaderRequestID, resp.RequestID); err != nil {
		t.Error(err)
	}

	// Only model and messages are sent when nothing else is set
	expected := map[string]interface{}{
		"model": "gpt-3.5-turbo",
		"messages": []map[string]interface{}{
			{"role": "user", "content": "Hello, you are amazing."},
		},
	}
	if err := testhelpers.ExpectJSONBody(recorded.Body, expected); err != nil {
		t.Error(err)
	}

	if mock.GetRequestCount() != 1 {
		t.Errorf("expected 1 request, got %d", mock.GetRequestCount())
	}
}

func TestOpenAIProvider_SendCompletion_NoAPIKey(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockOpenAIResponse("hi", "llama3"),
	})

	config := testhelpers.TestConfigWithURL("local", "openai", mock.URL()+"/v1")
	config.APIKey = ""
	provider, err := NewProvider(config)
	testhelpers.AssertNoError(t, err)

	_, err = provider.SendCompletion(context.Background(),
		testhelpers.TestCompletionRequest("llama3", testhelpers.TestMessage(providers.RoleUser, "hi")))
	testhelpers.AssertNoError(t, err)

	if auth := mock.LastRequest().Header.Get("Authorization"); auth != "" {
		t.Errorf("expected no Authorization header without a key, got %q", auth)
	}
}

func TestOpenAIProvider_SendCompletion_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response testhelpers.MockResponse
		check    func(t *testing.T, err error)
	}{
		{
			name:     "auth",
			response: testhelpers.MockAuthError(),
			check: func(t *testing.T, err error) {
				var authErr *providers.AuthError
				testhelpers.AssertErrorAs(t, err, &authErr)
				if authErr.Message != "Invalid API key" {
					t.Errorf("unexpected message %q", authErr.Message)
				}
			},
		},
		{
			name:     "rate limit",
			response: testhelpers.MockRateLimitError(20),
			check: func(t *testing.T, err error) {
				var rlErr *providers.RateLimitError
				testhelpers.AssertErrorAs(t, err, &rlErr)
				if rlErr.RetryAfter != 20*time.Second {
					t.Errorf("expected 20s retry after, got %v", rlErr.RetryAfter)
				}
			},
		},
		{
			name:     "server error",
			response: testhelpers.MockServerError(),
			check: func(t *testing.T, err error) {
				var providerErr *providers.ProviderError
				testhelpers.AssertErrorAs(t, err, &providerErr)
				if providerErr.StatusCode != 500 {
					t.Errorf("expected 500, got %d", providerErr.StatusCode)
				}
			},
		},
		{
			name: "no choices",
			response: testhelpers.MockResponse{
				StatusCode: 200,
				Body:       map[string]interface{}{"id": "x", "choices": []interface{}{}},
			},
			check: func(t *testing.T, err error) {
				var parseErr *providers.ParseError
				testhelpers.AssertErrorAs(t, err, &parseErr)
			},
		},
		{
			name:     "not json",
			response: testhelpers.MockResponse{StatusCode: 200, Body: "<html>proxy error page</html>"},
			check: func(t *testing.T, err error) {
				var parseErr *providers.ParseError
				testhelpers.AssertErrorAs(t, err, &parseErr)
				if parseErr.RawResponse != "<html>proxy error page</html>" {
					t.Errorf("unexpected raw response %q", parseErr.RawResponse)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testhelpers.NewMockServer()
			defer mock.Close()
			mock.SetResponse("/v1/chat/completions", tt.response)

			provider, err := NewProvider(testhelpers.TestConfigWithURL("openai", "openai", mock.URL()+"/v1"))
			testhelpers.AssertNoError(t, err)

			_, err = provider.SendCompletion(context.Background(),
				testhelpers.TestCompletionRequest("gpt-3.5-turbo", testhelpers.TestMessage(providers.RoleUser, "Hello")))
			tt.check(t, err)

			// Retries are off by default
			if mock.GetRequestCount() != 1 {
				t.Errorf("expected exactly 1 request, got %d", mock.GetRequestCount())
			}
		})
	}
}

func TestOpenAIProvider_SendCompletion_Retries(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testhelpers.MockServerError())

	config := testhelpers.TestConfigWithURL("openai", "openai", mock.URL()+"/v1")
	config.MaxRetries = 2
	observer := &countingObserver{}
	provider, err := NewProvider(config, WithObserver(observer), WithRetryBaseDelay(time.Millisecond))
	testhelpers.AssertNoError(t, err)

	_, err = provider.SendCompletion(context.Background(),
		testhelpers.TestCompletionRequest("gpt-3.5-turbo", testhelpers.TestMessage(providers.RoleUser, "Hello")))
	testhelpers.AssertError(t, err)

	if mock.GetRequestCount() != 3 {
		t.Errorf("expected 3 attempts, got %d", mock.GetRequestCount())
	}
	if observer.retries != 2 {
		t.Errorf("expected 2 retries observed, got %d", observer.retries)
	}
	if len(observer.statuses) != 1 || observer.statuses[0] != providers.StatusError {
		t.Errorf("expected one error request observation, got %v", observer.statuses)
	}
}

func TestOpenAIProvider_SendCompletion_Observer(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockOpenAIResponse("ok", "gpt-3.5-turbo"),
	})

	observer := &countingObserver{}
	provider, err := NewProvider(testhelpers.TestConfigWithURL("openai", "openai", mock.URL()+"/v1"), WithObserver(observer))
	testhelpers.AssertNoError(t, err)

	_, err = provider.SendCompletion(context.Background(),
		testhelpers.TestCompletionRequest("gpt-3.5-turbo", testhelpers.TestMessage(providers.RoleUser, "Hello")))
	testhelpers.AssertNoError(t, err)

	if len(observer.statuses) != 1 || observer.statuses[0] != providers.StatusSuccess {
		t.Errorf("expected one success observation, got %v", observer.statuses)
	}
	if observer.promptTokens != 10 || observer.completionTokens != 20 {
		t.Errorf("unexpected tokens %d/%d", observer.promptTokens, observer.completionTokens)
	}
	if observer.sizes["request"] == 0 || observer.sizes["response"] == 0 {
		t.Errorf("expected request and response sizes, got %v", observer.sizes)
	}
}

func TestOpenAIProvider_ThroughProxy(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockOpenAIResponse("proxied", "gpt-3.5-turbo"),
	})

	proxy := testhelpers.NewForwardProxy()
	defer proxy.Close()

	config := testhelpers.TestConfigWithProxy("openai", "openai", mock.URL()+"/v1", proxy.URL())
	provider, err := NewProvider(config)
	testhelpers.AssertNoError(t, err)

	resp, err := provider.SendCompletion(context.Background(),
		testhelpers.TestCompletionRequest("gpt-3.5-turbo", testhelpers.TestMessage(providers.RoleUser, "Hello, you are amazing.")))
	testhelpers.AssertNoError(t, err)

	if resp.Content != "proxied" {
		t.Errorf("unexpected content %q", resp.Content)
	}

	requests := proxy.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected the proxy to see 1 request, got %d", len(requests))
	}
	if requests[0].URL != mock.URL()+"/v1/chat/completions" {
		t.Errorf("proxy saw %q", requests[0].URL)
	}
	if requests[0].Header.Get("Authorization") != "Bearer test-key" {
		t.Error("proxy should see the Authorization header of a plain http request")
	}
}

func TestOpenAIProvider_Validation(t *testing.T) {
	provider, err := NewProvider(testhelpers.TestConfigWithURL("openai", "openai", "http://localhost:1/v1"))
	testhelpers.AssertNoError(t, err)

	hot := 2.5
	tests := []struct {
		name  string
		req   *providers.CompletionRequest
		field string
	}{
		{"nil request", nil, "request"},
		{"missing model", testhelpers.TestCompletionRequest("", testhelpers.TestMessage("user", "hi")), "model"},
		{"no messages", testhelpers.TestCompletionRequest("gpt-3.5-turbo"), "messages"},
		{"unknown role", testhelpers.TestCompletionRequest("gpt-3.5-turbo", testhelpers.TestMessage("robot", "hi")), "messages[0].role"},
		{"temperature", &providers.CompletionRequest{
			Model:       "gpt-3.5-turbo",
			Messages:    []providers.Message{testhelpers.TestMessage("user", "hi")},
			Temperature: &hot,
		}, "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.SendCompletion(context.Background(), tt.req)
			var validationErr *providers.ValidationError
			testhelpers.AssertErrorAs(t, err, &validationErr)
			if validationErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, validationErr.Field)
			}
		})
	}
}

func TestOpenAIProvider_ListModelsAndHealth(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/models", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockOpenAIModels("gpt-4o", "gpt-3.5-turbo"),
	})

	provider, err := NewProvider(testhelpers.TestConfigWithURL("openai", "openai", mock.URL()+"/v1"))
	testhelpers.AssertNoError(t, err)

	models, err := provider.ListModels(context.Background())
	testhelpers.AssertNoError(t, err)
	if !reflect.DeepEqual(models, []string{"gpt-3.5-turbo", "gpt-4o"}) {
		t.Errorf("unexpected models %v", models)
	}
	if mock.LastRequest().Method != http.MethodGet {
		t.Errorf("expected GET, got %s", mock.LastRequest().Method)
	}

	testhelpers.AssertNoError(t, provider.HealthCheck(context.Background()))
	if !provider.IsHealthy() {
		t.Error("expected healthy after successful check")
	}

	mock.SetResponse("/v1/models", testhelpers.MockAuthError())
	testhelpers.AssertError(t, provider.HealthCheck(context.Background()))
	if provider.IsHealthy() {
		t.Error("expected unhealthy after failed check")
	}
}

func TestOpenAIProvider_ImplementsProvider(t *testing.T) {
	var _ providers.Provider = (*Provider)(nil)
}
