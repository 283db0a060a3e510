package ai

import (
	"testing"
)

func TestParseProposals(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{
			name:    "plain array",
			content: `[{"utterance_id":"u1","code":"barrier","confidence":0.8,"quote":"too slow"}]`,
			want:    1,
		},
		{
			name:    "fenced json block",
			content: "```json\n[{\"utterance_id\":\"u1\",\"code\":\"barrier\",\"confidence\":0.8}]\n```",
			want:    1,
		},
		{
			name:    "fenced without language tag",
			content: "```\n[{\"utterance_id\":\"u1\",\"code\":\"barrier\",\"confidence\":0.8}]\n```",
			want:    1,
		},
		{
			name:    "skips entries missing utterance id",
			content: `[{"code":"barrier","confidence":0.8},{"utterance_id":"u2","code":"enabler","confidence":0.6}]`,
			want:    1,
		},
		{
			name:    "skips entries missing code",
			content: `[{"utterance_id":"u1","confidence":0.8}]`,
			want:    0,
		},
		{
			name:    "empty array",
			content: `[]`,
			want:    0,
		},
		{
			name:    "prose instead of json",
			content: `Here are the codes I found in the transcript.`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProposals(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseProposals failed: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d proposals, got %v", tt.want, got)
			}
		})
	}
}

func TestParseProposals_TrimsCodeWhitespace(t *testing.T) {
	got, err := ParseProposals(`[{"utterance_id":"u1","code":" barrier ","confidence":0.8}]`)
	if err != nil {
		t.Fatalf("ParseProposals failed: %v", err)
	}
	if got[0].Code != "barrier" {
		t.Fatalf("expected trimmed code, got %q", got[0].Code)
	}
}

func TestParseCodeMap(t *testing.T) {
	got, err := ParseCodeMap("```json\n{\"theme_a\":\" code_a \",\"theme_b\":\"NO_MATCH\"}\n```")
	if err != nil {
		t.Fatalf("ParseCodeMap failed: %v", err)
	}
	if got["theme_a"] != "code_a" {
		t.Fatalf("expected trimmed mapping, got %v", got)
	}
	if got["theme_b"] != NoMatchSentinel {
		t.Fatalf("expected sentinel preserved, got %v", got)
	}
}

func TestParseCodeMap_Invalid(t *testing.T) {
	if _, err := ParseCodeMap(`[1,2,3]`); err == nil {
		t.Fatalf("expected error for non-object response")
	}
}
