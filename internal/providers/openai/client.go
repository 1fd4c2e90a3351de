// Package openai implements the LLM, transcription, and voice synthesis
// capability contracts on top of the OpenAI API.
package openai

import (
	"errors"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// DefaultChatModel is used for planning, script generation, intent and
	// category detection, and translation.
	DefaultChatModel = "gpt-4o-mini"

	// DefaultTimeout bounds a single chat completion call.
	DefaultTimeout = 60 * time.Second

	// transcribeTimeout bounds audio download plus speech-to-text.
	transcribeTimeout = 120 * time.Second
)

// ErrAPIKeyNotSet is returned when constructing a client without an API key.
var ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

// Client bundles the OpenAI SDK client with call defaults. All capability
// adapters in this package share one Client.
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
}

// NewClient creates a Client for the given API key and chat model.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultChatModel
	}
	return &Client{
		api:     openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}
