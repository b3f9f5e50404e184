package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"WordLeap/app/restclient"
)

const endpoint = "/v1/chat/completions"

var ErrNoCredential = errors.New("no oracle credential set")

var _ Interface = &Client{}

type Client struct {
	restClient  restclient.Interface
	model       string
	temperature float64
	maxTokens   int

	mu         sync.RWMutex
	credential string
}

func NewClient(rc restclient.Interface, model string, temperature float64, maxTokens int) *Client {
	return &Client{
		restClient:  rc,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (c *Client) SetCredential(key string) {
	c.mu.Lock()
	c.credential = key
	c.mu.Unlock()
}

func (c *Client) ClearCredential() {
	c.SetCredential("")
}

func (c *Client) authHeader() (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.credential == "" {
		return nil, ErrNoCredential
	}
	return map[string]string{"Authorization": "Bearer " + c.credential}, nil
}

// FetchPair asks the oracle for the two candidates at the current step.
func (c *Client) FetchPair(ctx context.Context, words []string, targetLength int) (WordPair, error) {
	return c.Fetch(ctx, BuildPrompt(words, targetLength))
}

// Fetch sends an already-built prompt with the fixed system framing.
func (c *Client) Fetch(ctx context.Context, prompt string) (WordPair, error) {
	payload := requestPayload{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: SystemFraming},
			{Role: "user", Content: prompt},
		},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	response, err := c.sendRequestAndParse(ctx, payload, 3)
	if err != nil {
		return WordPair{}, err
	}
	if len(response.Choices) == 0 {
		return WordPair{}, errors.New("oracle returned no choices")
	}
	return parsePair(response.Choices[0].Message.Content)
}

func (c *Client) sendRequestAndParse(ctx context.Context, payload requestPayload, maxRetries int) (*ResponseLLM, error) {
	headers, err := c.authHeader()
	if err != nil {
		return nil, err
	}

	var response []byte
	var status int
	var generatedResponse ResponseLLM

	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			log.Println("🚨 Oracle request canceled before execution")
			return nil, ctx.Err()
		default:
			if err != nil {
				time.Sleep(time.Duration(math.Pow(2, float64(i))) * 100 * time.Millisecond)
			}
			response, status, err = c.restClient.Post(ctx, endpoint, payload, headers)
			if err != nil {
				log.Printf("⚠️ Oracle attempt %d failed: HTTP %d | Error: %v", i, status, err)
				continue
			}
			if status >= 300 {
				err = fmt.Errorf("oracle returned HTTP %d: %s", status, string(response))
				log.Printf("⚠️ Oracle attempt %d failed: %v", i, err)
				continue
			}
			if err = json.Unmarshal(response, &generatedResponse); err != nil {
				log.Printf("⚠️ Error parsing oracle response: %v", err)
				continue
			}
			return &generatedResponse, nil
		}
	}

	return nil, fmt.Errorf("oracle request failed after %d retries: %w", maxRetries, err)
}

// parsePair decodes the message content as the {safe, leap} object. Code
// fences around the object are tolerated; any other shape is a failure.
func parsePair(content string) (WordPair, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	var pair WordPair
	if err := json.Unmarshal([]byte(content), &pair); err != nil {
		return WordPair{}, fmt.Errorf("malformed oracle content %q: %w", content, err)
	}
	return pair, nil
}
