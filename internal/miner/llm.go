package miner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/xealabs/xea-oracle/internal/aggregate"
	"github.com/xealabs/xea-oracle/internal/model"
)

// LLMMiner asks a chat model to validate a claim, for deployments that
// have no miner network available. It produces the same MinerResponse
// shape as a real miner.
type LLMMiner struct {
	id     string
	client *openai.Client
	config model.LLMConfig
}

// llmVerdict is the JSON shape the model is instructed to return
type llmVerdict struct {
	Verdict             string   `json:"verdict"`
	Rationale           string   `json:"rationale"`
	EvidenceLinks       []string `json:"evidence_links"`
	Accuracy            float64  `json:"accuracy"`
	OmissionRisk        float64  `json:"omission_risk"`
	EvidenceQuality     float64  `json:"evidence_quality"`
	GovernanceRelevance float64  `json:"governance_relevance"`
}

// NewLLMMiner creates an LLM-backed miner
func NewLLMMiner(id string, config model.LLMConfig) (*LLMMiner, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("LLM miner requires an API key")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &LLMMiner{
		id:     id,
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// ID returns the miner's identifier
func (m *LLMMiner) ID() string {
	return m.id
}

// ValidateClaim asks the model for a verdict and scores on one claim
func (m *LLMMiner) ValidateClaim(ctx context.Context, claim model.Claim, proposalContext string) (*model.MinerResponse, error) {
	chatModel := m.config.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	maxTokens := m.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}
	timeout := time.Duration(m.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := m.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an independent validator of factual claims extracted from governance proposals. Respond with JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(claim, proposalContext),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("miner %s: chat completion: %w", m.id, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("miner %s: empty completion", m.id)
	}

	var parsed llmVerdict
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("miner %s: decode verdict: %w", m.id, err)
	}

	verdict := model.Verdict(parsed.Verdict)
	if !verdict.IsValid() {
		return nil, fmt.Errorf("miner %s: invalid verdict %q", m.id, parsed.Verdict)
	}

	scores := model.MinerScores{
		Accuracy:            aggregate.Clamp01(parsed.Accuracy),
		OmissionRisk:        aggregate.Clamp01(parsed.OmissionRisk),
		EvidenceQuality:     aggregate.Clamp01(parsed.EvidenceQuality),
		GovernanceRelevance: aggregate.Clamp01(parsed.GovernanceRelevance),
	}
	scores.Composite = aggregate.PoUWComposite(scores)

	return &model.MinerResponse{
		MinerID:       m.id,
		ClaimID:       claim.ID,
		Verdict:       verdict,
		Rationale:     parsed.Rationale,
		EvidenceLinks: parsed.EvidenceLinks,
		Scores:        scores,
	}, nil
}

func buildPrompt(claim model.Claim, proposalContext string) string {
	const maxContext = 4000
	if len(proposalContext) > maxContext {
		proposalContext = proposalContext[:maxContext]
	}

	return fmt.Sprintf(`Validate the following claim extracted from a governance proposal.

Claim (%s): %q

Proposal context:
%s

Return a JSON object with exactly these fields:
- "verdict": one of "verified", "refuted", "unverifiable", "partial"
- "rationale": 1-2 sentences explaining the verdict
- "evidence_links": array of supporting URLs (may be empty)
- "accuracy", "omission_risk", "evidence_quality", "governance_relevance": numbers in [0,1]`,
		claim.Type, claim.Text, proposalContext)
}
