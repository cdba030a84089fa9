// Package ollama はローカル推論サービス（Ollama chat API）のクライアントを提供する。
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultHost     = "http://localhost:11434"
	defaultTimeout  = 120 * time.Second
	defaultMaxTries = 3

	// maxErrorBody はエラー時に読み取るレスポンスボディの上限。
	maxErrorBody = 4 << 10
)

// Message はチャットの1メッセージ。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// ChatResponse は非ストリーミングのチャット応答。
type ChatResponse struct {
	Model         string  `json:"model"`
	Message       Message `json:"message"`
	Done          bool    `json:"done"`
	TotalDuration int64   `json:"total_duration"`
}

// Config はクライアントの設定。
type Config struct {
	Host     string
	Timeout  time.Duration
	MaxTries uint

	// InitialInterval はリトライ間隔の初期値。0の場合は500ms。
	InitialInterval time.Duration
	HTTPClient      *http.Client
}

// Client はOllama chat APIのクライアント。
type Client struct {
	baseURL         string
	httpClient      *http.Client
	maxTries        uint
	initialInterval time.Duration
}

// NewClient はClientを生成する。
func NewClient(cfg Config) *Client {
	host := strings.TrimRight(cfg.Host, "/")
	if host == "" {
		host = defaultHost
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	maxTries := cfg.MaxTries
	if maxTries == 0 {
		maxTries = defaultMaxTries
	}
	interval := cfg.InitialInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	return &Client{
		baseURL:         host,
		httpClient:      httpClient,
		maxTries:        maxTries,
		initialInterval: interval,
	}
}

// Chat はモデルにメッセージを送り、応答を返す。
// 通信エラーと5xxは指数バックオフで再試行し、4xxは即座に失敗する。
func (c *Client) Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error) {
	payload, err := json.Marshal(chatRequest{Model: model, Messages: messages, Stream: false})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.initialInterval
	exp.RandomizationFactor = 0.1
	exp.Multiplier = 1.5
	exp.Reset()

	operation := func() (*ChatResponse, error) {
		return c.doChat(ctx, payload)
	}

	resp, err := backoff.Retry(ctx, operation, backoff.WithBackOff(exp), backoff.WithMaxTries(c.maxTries))
	if err != nil {
		return nil, fmt.Errorf("ollama chat with model %q failed: %w", model, err)
	}
	return resp, nil
}

func (c *Client) doChat(ctx context.Context, payload []byte) (*ChatResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create chat request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := fmt.Errorf("chat failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(statusErr)
		}
		return nil, statusErr
	}

	var chat ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode chat response: %w", err))
	}
	if strings.TrimSpace(chat.Message.Content) == "" {
		return nil, backoff.Permanent(fmt.Errorf("empty chat response"))
	}
	return &chat, nil
}
