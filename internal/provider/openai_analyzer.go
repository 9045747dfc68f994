package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/unalkalkan/PaperSlides/internal/analysis"
	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// Defaults for the two analysis passes
const (
	DefaultTimeout              = 120 * time.Second
	DefaultStructureTemperature = 0.1
	DefaultAnalysisTemperature  = 0.2
	DefaultMaxTokens            = 4000
)

// OpenAIAnalyzer implements ContentAnalyzer against an OpenAI-compatible chat API.
// It runs a structure pass, then a detailed pass fed that structure.
type OpenAIAnalyzer struct {
	name        string
	model       string
	client      *openai.Client
	limiter     *rate.Limiter
	temperature float64
	maxTokens   int64
	logger      *logrus.Logger
}

// NewOpenAIAnalyzer creates an analyzer from provider configuration.
// Options: timeout (seconds), temperature (detailed pass), max_tokens.
func NewOpenAIAnalyzer(cfg types.LLMProviderConfig, logger *logrus.Logger) (*OpenAIAnalyzer, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for OpenAI analyzer")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required for OpenAI analyzer")
	}

	logger = logging.OrDiscard(logger)
	entry := logger.WithField("analyzer", cfg.Name)

	timeout := DefaultTimeout
	if v, ok := cfg.Options["timeout"]; ok {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			timeout = time.Duration(sec) * time.Second
		} else {
			entry.WithField("timeout", v).Warn("Ignoring invalid timeout option")
		}
	}

	temperature := DefaultAnalysisTemperature
	if v, ok := cfg.Options["temperature"]; ok {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			temperature = t
		} else {
			entry.WithField("temperature", v).Warn("Ignoring invalid temperature option")
		}
	}

	maxTokens := int64(DefaultMaxTokens)
	if v, ok := cfg.Options["max_tokens"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxTokens = n
		} else {
			entry.WithField("max_tokens", v).Warn("Ignoring invalid max_tokens option")
		}
	}

	limit := rate.Inf
	if cfg.RateLimitQPS > 0 {
		limit = rate.Limit(cfg.RateLimitQPS)
	}

	endpoint := cfg.Endpoint
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	opts := []option.RequestOption{
		option.WithBaseURL(endpoint),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	client := openai.NewClient(opts...)

	return &OpenAIAnalyzer{
		name:        cfg.Name,
		model:       cfg.Model,
		client:      &client,
		limiter:     rate.NewLimiter(limit, 1),
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}, nil
}

// Name returns the provider name
func (o *OpenAIAnalyzer) Name() string {
	return o.name
}

// Analyze runs both passes and parses the detailed result
func (o *OpenAIAnalyzer) Analyze(ctx context.Context, text string) (*types.DocumentAnalysis, error) {
	entry := o.logger.WithFields(logrus.Fields{
		"analyzer": o.name,
		"model":    o.model,
	})

	start := time.Now()
	structure, err := o.complete(ctx, structureSystemPrompt, structurePrompt(text), DefaultStructureTemperature, 0, false)
	if err != nil {
		return nil, err
	}

	structure = analysis.StripCodeFences(structure)
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(structure), "", "  "); err != nil {
		return nil, types.NewPipelineError(types.KindMalformedAnalysisObject, "provider.structure",
			fmt.Errorf("structure response is not JSON: %w", err))
	}
	entry.WithField("took", time.Since(start)).Debug("Structure pass complete")

	start = time.Now()
	detailed, err := o.complete(ctx, analysisSystemPrompt, analysisPrompt(pretty.String(), text), o.temperature, o.maxTokens, true)
	if err != nil {
		return nil, err
	}
	entry.WithField("took", time.Since(start)).Debug("Analysis pass complete")

	doc, err := analysis.Parse([]byte(detailed))
	if err != nil {
		entry.WithField("response", truncateForLog(detailed, 500)).Error("Analysis response rejected")
		return nil, err
	}

	entry.WithField("sections", len(doc.Sections)).Info("Analyzed paper")
	return doc, nil
}

// complete sends one chat completion and returns the first choice's content
func (o *OpenAIAnalyzer) complete(ctx context.Context, system, prompt string, temperature float64, maxTokens int64, jsonMode bool) (string, error) {
	fail := func(err error) error {
		return types.NewPipelineError(types.KindUpstreamCollaboratorFailure, "provider.openai", err)
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return "", fail(err)
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(maxTokens)
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fail(fmt.Errorf("API error (status %d): %w", apiErr.StatusCode, err))
		}
		return "", fail(fmt.Errorf("failed to call LLM API: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", fail(errors.New("no choices in API response"))
	}

	o.logger.WithFields(logrus.Fields{
		"analyzer":          o.name,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"finish_reason":     resp.Choices[0].FinishReason,
	}).Debug("LLM response")

	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op for the OpenAI analyzer
func (o *OpenAIAnalyzer) Close() error {
	return nil
}

// truncateForLog flattens and shortens a string for logging
func truncateForLog(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
