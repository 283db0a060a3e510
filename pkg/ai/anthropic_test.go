package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
	"github.com/johnquangdev/qualcoder/internal/usecase/coding"
	"github.com/johnquangdev/qualcoder/pkg/config"
)

func TestAnthropicCode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-sonnet-4-20250514",
			"stop_reason": "end_turn",
			"content": []map[string]string{
				{"type": "text", "text": `[{"utterance_id":"u1","code":"barrier","quote":"too slow","confidence":0.75}]`},
			},
			"usage": map[string]int{"input_tokens": 42, "output_tokens": 21},
		}); err != nil {
			t.Fatalf("encode reply: %v", err)
		}
	}))
	defer ts.Close()

	rater := NewAnthropicRater(&config.RatersConfig{
		AnthropicAPIKey: "test-key",
		AnthropicModel:  "claude-sonnet-4-20250514",
	}, nil, option.WithBaseURL(ts.URL))

	if rater.Name() != "anthropic" {
		t.Fatalf("unexpected rater name %q", rater.Name())
	}

	proposals, err := rater.Code(context.Background(), coding.CodeRequest{
		Utterances:  []entities.Utterance{{ID: "u1", Speaker: "P1", Text: "the app is too slow for daily use"}},
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("Code failed: %v", err)
	}

	if len(proposals) != 1 || proposals[0].Code != "barrier" || proposals[0].Confidence != 0.75 {
		t.Fatalf("unexpected proposals %v", proposals)
	}
}
