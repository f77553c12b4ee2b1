package openai

import (
	"encoding/json"
	"testing"

	"mercator-hq/courier/pkg/providers"
)

func TestTransformRequest_OmitsUnsetFields(t *testing.T) {
	req := &providers.CompletionRequest{
		Model:    "gpt-3.5-turbo",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "Hello, you are amazing."}},
	}

	body, err := json.Marshal(transformRequest(req))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	want := `{"model":"gpt-3.5-turbo","messages":[{"role":"user","content":"Hello, you are amazing."}]}`
	if string(body) != want {
		t.Errorf("unexpected body:\n got: %s\nwant: %s", body, want)
	}
}

func TestTransformRequest_Options(t *testing.T) {
	temp := 0.0
	req := &providers.CompletionRequest{
		Model: "gpt-4o",
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: "Be brief."},
			{Role: providers.RoleUser, Content: "Hi", Name: "alice"},
		},
		Temperature: &temp,
		MaxTokens:   64,
		Stop:        []string{"\n"},
		User:        "u-1",
		Stream:      true,
	}

	out := transformRequest(req)

	if out.Temperature == nil || *out.Temperature != 0 {
		t.Errorf("explicit zero temperature must be kept, got %v", out.Temperature)
	}
	if out.MaxTokens != 64 || out.User != "u-1" || len(out.Stop) != 1 {
		t.Errorf("options not copied: %+v", out)
	}
	if len(out.Messages) != 2 || out.Messages[1].Name != "alice" {
		t.Errorf("messages not copied: %+v", out.Messages)
	}
	if out.StreamOptions == nil || !out.StreamOptions.IncludeUsage {
		t.Error("streaming requests should ask for usage")
	}

	body, _ := json.Marshal(out)
	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["temperature"] != 0.0 {
		t.Errorf("temperature 0 should be serialized, got %v", decoded["temperature"])
	}
}

func TestTransformResponse(t *testing.T) {
	resp := &OpenAIResponse{
		ID:      "chatcmpl-abc",
		Model:   "gpt-3.5-turbo-0125",
		Created: 1700000000,
		Choices: []OpenAIChoice{{
			Message: OpenAIMessage{
				Role:    "assistant",
				Content: "",
				ToolCalls: []OpenAIToolCall{{
					ID:       "call_1",
					Type:     "function",
					Function: OpenAIFunctionCall{Name: "lookup", Arguments: `{"q":"x"}`},
				}},
			},
			FinishReason: "tool_calls",
		}},
		Usage: OpenAIUsage{
			PromptTokens:        100,
			CompletionTokens:    5,
			TotalTokens:         105,
			PromptTokensDetails: &OpenAIPromptTokenDetails{CachedTokens: 64},
		},
	}

	out, err := transformResponse(resp)
	if err != nil {
		t.Fatalf("transformResponse failed: %v", err)
	}

	if out.ID != "chatcmpl-abc" || out.Created != 1700000000 {
		t.Errorf("identity not copied: %+v", out)
	}
	if out.FinishReason != providers.FinishReasonToolCalls {
		t.Errorf("expected tool_calls finish reason, got %q", out.FinishReason)
	}
	if len(out.ToolCalls) != 1 || out.ToolCalls[0].Function.Name != "lookup" {
		t.Errorf("tool calls not copied: %+v", out.ToolCalls)
	}
	if out.Usage.CachedPromptTokens != 64 || out.Usage.TotalTokens != 105 {
		t.Errorf("usage not copied: %+v", out.Usage)
	}
}

func TestTransformResponse_NoChoices(t *testing.T) {
	if _, err := transformResponse(&OpenAIResponse{ID: "x"}); err == nil {
		t.Fatal("expected error for response without choices")
	}
}

func TestNormalizeFinishReason(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"stop", providers.FinishReasonStop},
		{"length", providers.FinishReasonLength},
		{"tool_calls", providers.FinishReasonToolCalls},
		{"function_call", providers.FinishReasonToolCalls},
		{"content_filter", providers.FinishReasonContentFilter},
		{"", ""},
		{"something_new", "something_new"},
	}

	for _, tt := range tests {
		if got := normalizeFinishReason(tt.in); got != tt.want {
			t.Errorf("normalizeFinishReason(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
