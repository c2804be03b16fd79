package cortex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockProvider invokes Anthropic models hosted on AWS Bedrock.
type BedrockProvider struct {
	region    string
	modelID   string
	accessKey string
	secretKey string

	mu     sync.Mutex
	client *bedrockruntime.Client
}

// NewBedrockProvider creates a Bedrock-backed provider. Empty region or
// model id yields an unavailable provider. Static credentials are
// optional; the default AWS credential chain applies otherwise.
func NewBedrockProvider(region, modelID, accessKey, secretKey string) *BedrockProvider {
	return &BedrockProvider{
		region:    region,
		modelID:   modelID,
		accessKey: accessKey,
		secretKey: secretKey,
	}
}

func (p *BedrockProvider) Name() string { return "bedrock" }

func (p *BedrockProvider) Available() bool {
	return p.region != "" && p.modelID != ""
}

// Serves matches the configured Bedrock model id and bare Anthropic
// model names, which are mapped onto the configured id.
func (p *BedrockProvider) Serves(model string) bool {
	if !p.Available() {
		return false
	}
	return model == p.modelID || strings.HasPrefix(model, "claude-") || strings.HasPrefix(model, "anthropic.")
}

func (p *BedrockProvider) getClient(ctx context.Context) (*bedrockruntime.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(p.region)}
	if p.accessKey != "" && p.secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(p.accessKey, p.secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cortex: load aws config: %w", err)
	}
	p.client = bedrockruntime.NewFromConfig(cfg)
	return p.client, nil
}

// anthropicRequest is the Bedrock messages-API request body.
type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *BedrockProvider) Complete(ctx context.Context, model string, creq Request) (*Response, error) {
	if !p.Available() {
		return nil, ErrNoProvider
	}

	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	maxTokens := creq.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Temperature:      creq.Temperature,
		System:           creq.System,
		Messages:         []anthropicMessage{{Role: "user", Content: creq.Prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("cortex: marshal bedrock request: %w", err)
	}

	out, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		if strings.Contains(err.Error(), "ThrottlingException") {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("cortex: bedrock invoke: %w", err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("cortex: parse bedrock response: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("cortex: empty bedrock response")
	}

	return &Response{
		Model:   p.modelID,
		Content: cleanContent(text.String()),
	}, nil
}
