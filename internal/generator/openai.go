package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatReq struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float32         `json:"temperature,omitempty"`
}

type openAIChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenAI calls the chat completions endpoint directly.
type OpenAI struct {
	APIKey  string
	Model   string
	BaseURL string
	Org     string
	Client  *http.Client
	Log     *zap.Logger
}

func (o *OpenAI) Name() string { return "openai:" + o.Model }

// NewOpenAI fills in defaults for empty settings.
func NewOpenAI(apiKey, model, baseURL, org string, log *zap.Logger) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenAI{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Org:     org,
		Client:  &http.Client{Timeout: 120 * time.Second},
		Log:     log,
	}
}

func (o *OpenAI) Generate(ctx context.Context, mt catalog.ModuleType, intake models.IntakeData) (json.RawMessage, error) {
	if o.APIKey == "" {
		return nil, fmt.Errorf("server missing OPENAI_API_KEY")
	}
	prompt, err := Prompt(mt, intake)
	if err != nil {
		return nil, err
	}

	body := openAIChatReq{
		Model: o.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: System(mt)},
			{Role: "user", Content: prompt},
		},
		Temperature: 1,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if o.Org != "" {
		req.Header.Set("OpenAI-Organization", o.Org)
	}

	o.Log.Debug("openai request", zap.String("module", string(mt)), zap.String("model", o.Model), zap.Int("promptBytes", len(prompt)))
	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream error contacting OpenAI: %w", err)
	}
	defer resp.Body.Close()

	slurp, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		o.Log.Warn("openai non-2xx", zap.Int("status", resp.StatusCode), zap.String("module", string(mt)))
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var ai openAIChatResp
	if err := json.Unmarshal(slurp, &ai); err != nil {
		return nil, fmt.Errorf("bad openai response: %w", err)
	}
	if len(ai.Choices) == 0 {
		return nil, fmt.Errorf("no choices from openai")
	}
	return normalize(mt, ai.Choices[0].Message.Content)
}
