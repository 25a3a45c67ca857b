package summarize

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"
)

func TestResponseTextJoinsParts(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []genai.Part{genai.Text("Sermaye artırımı "), genai.Text("onaylandı.")},
			},
		}},
	}

	text, err := responseText(resp)
	require.NoError(t, err)
	require.Equal(t, "Sermaye artırımı onaylandı.", text)
}

func TestResponseTextEmptyCandidates(t *testing.T) {
	t.Parallel()

	_, err := responseText(&genai.GenerateContentResponse{})
	require.Error(t, err)
}

func TestResponseTextNoTextParts(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{}}},
	}
	_, err := responseText(resp)
	require.Error(t, err)
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{}, nil)
	require.Error(t, err)
}
