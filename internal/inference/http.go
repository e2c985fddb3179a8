package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cipherchat/internal/domain"
)

// ChatPath is the chat completion endpoint below the base URL.
const ChatPath = "/api/chat"

// ErrEmptyReply is returned when the service answers with no content.
var ErrEmptyReply = errors.New("inference service returned an empty reply")

// ChatRequest is the body posted to ChatPath.
type ChatRequest struct {
	Model    string            `json:"model"`
	Messages []domain.ChatTurn `json:"messages"`
	Stream   bool              `json:"stream"`
}

// ChatResponse is the non-streaming reply from ChatPath.
type ChatResponse struct {
	Model   string          `json:"model"`
	Message domain.ChatTurn `json:"message"`
	Done    bool            `json:"done"`
}

// HTTP talks to an Ollama-compatible chat endpoint.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for base.
func NewHTTP(base string) *HTTP {
	return &HTTP{Base: strings.TrimRight(base, "/"), HTTP: http.DefaultClient}
}

// Complete sends history and returns the assistant's reply.
func (c *HTTP) Complete(ctx context.Context, model string, history []domain.ChatTurn) (string, error) {
	var out ChatResponse
	if err := c.post(ctx, ChatPath, ChatRequest{Model: model, Messages: history}, &out); err != nil {
		return "", err
	}
	if out.Message.Content == "" {
		return "", ErrEmptyReply
	}
	return out.Message.Content, nil
}

func (c *HTTP) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("inference post %s: %s", c.Base+path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var _ domain.InferenceClient = (*HTTP)(nil)
