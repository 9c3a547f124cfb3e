package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/dishbook/backend/internal/domain"
	"github.com/dishbook/backend/internal/logger"
)

// Model defaults
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 200
)

const systemPrompt = `You match grocery product names, mostly Polish, against a product catalog.
Decide whether the recognized product name refers to one of the numbered candidates.

Rules:
1. Different grammatical forms of one product match (jajko/jajka, mleko/mleka, jabłko/jabłka).
2. Ignore descriptive adjectives such as małe, duże, świeże, ekologiczne, młode.
3. Synonyms and varieties match (masło/masło ekstra, cukier/cukier biały).
4. Different products never match (jabłka vs jajka, pomidor vs ogórek, cebula vs czosnek).

Reply with a JSON object only:
{"isMatch": true|false, "matchedIndex": <candidate number or -1>, "confidence": <0.0-1.0>, "reason": "<short justification>"}`

// Config holds configuration for the OpenAI model
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Model is a SemanticModel backed by an OpenAI chat completion in JSON mode.
type Model struct {
	client      *goopenai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewModel creates an OpenAI-backed model
func NewModel(config Config) (*Model, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}

	clientConfig := goopenai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	m := &Model{
		client:      goopenai.NewClientWithConfig(clientConfig),
		model:       config.Model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		timeout:     config.Timeout,
	}
	if m.model == "" {
		m.model = DefaultModel
	}
	if m.temperature <= 0 {
		m.temperature = DefaultTemperature
	}
	if m.maxTokens <= 0 {
		m.maxTokens = DefaultMaxTokens
	}
	if m.timeout <= 0 {
		m.timeout = 15 * time.Second
	}
	return m, nil
}

// completionReply is the JSON object the model is asked to produce
type completionReply struct {
	IsMatch      bool     `json:"isMatch"`
	MatchedIndex *int     `json:"matchedIndex"`
	Confidence   *float64 `json:"confidence"`
	Reason       string   `json:"reason"`
}

// CompareProducts asks the model which candidate, if any, recognizedName refers to.
func (m *Model) CompareProducts(
	ctx context.Context,
	recognizedName string,
	candidates []domain.Candidate,
	matchScore float64,
) (*domain.ModelVerdict, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: m.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: userPrompt(recognizedName, candidates, matchScore)},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    m.temperature,
		MaxTokens:      m.maxTokens,
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "openai chat completion"), domain.ErrVerifierUnavailable)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, errors.Wrap(domain.ErrMalformedVerification, "openai returned no content")
	}

	content := resp.Choices[0].Message.Content
	logger.Logger.Debugw("[OPENAI] reply", "name", recognizedName, "content", content)

	return parseReply(content)
}

func userPrompt(recognizedName string, candidates []domain.Candidate, matchScore float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recognized product name: %q\n", recognizedName)
	b.WriteString("Candidates:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i, c.Name)
	}
	fmt.Fprintf(&b, "Fuzzy match score (0 = identical, 1 = unrelated): %.2f\n", matchScore)
	b.WriteString("Does the recognized product match one of the candidates?")
	return b.String()
}

// parseReply decodes the model's JSON, tolerating a markdown code fence
func parseReply(content string) (*domain.ModelVerdict, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var reply completionReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &reply); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode openai reply"), domain.ErrMalformedVerification)
	}

	verdict := &domain.ModelVerdict{
		IsMatch:      reply.IsMatch,
		MatchedIndex: -1,
		Reason:       reply.Reason,
	}
	if reply.MatchedIndex != nil {
		verdict.MatchedIndex = *reply.MatchedIndex
	}
	if reply.Confidence != nil {
		verdict.Confidence = *reply.Confidence
	}
	return verdict, nil
}
