// Package advisory talks to an OpenAI-compatible chat completion endpoint to
// obtain a second opinion on a scan. Responses are cached by request content
// hash, so repeating an identical analysis costs nothing.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fenilsonani/diskwise/internal/advisor"
	"github.com/fenilsonani/diskwise/internal/progress"
)

// ErrNotConfigured is returned when the endpoint settings are incomplete.
var ErrNotConfigured = errors.New("advisory endpoint not configured")

const (
	requestTimeout = 90 * time.Second
	modelsTimeout  = 20 * time.Second
	connectTimeout = 25 * time.Second
	maxAttempts    = 3
)

// systemPrompt pins the response contract: JSON only, one rated item per
// input item, Chinese natural-language fields.
const systemPrompt = "You are a cautious Windows cleanup advisor for C drive analysis. " +
	"Return JSON only. " +
	"The JSON must contain two top-level fields: advice and report. " +
	"advice must include diagnosis and items. " +
	"diagnosis fields: summary, highlights[], risks[], actions[]. " +
	"You must rate each input item from identity list with exactly five levels L1-L5. " +
	"You must return one advice item per item_id and cannot skip items. " +
	"Each returned item must preserve the original file_name and path. " +
	"Each item fields: item_id, target, file_name, level(L1-L5), confidence(0-1), " +
	"reason, risk_notes, recommended_action, requires_confirmation, estimated_savings_bytes. " +
	"Use Chinese for all natural-language fields. " +
	"Never use English for diagnosis sentences unless user explicitly asks for English. " +
	"Do not return markdown."

// Config holds the endpoint settings for one client.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	CacheEnabled bool
	CachePath    string
}

// Client is an advisory endpoint client. Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	cache   *responseCache
	bus     *progress.Bus
	log     *zap.Logger
}

// NewClient builds a client, normalizing the base URL and loading the
// response cache. bus and log may be nil.
func NewClient(cfg Config, bus *progress.Bus, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: NormalizeBaseURL(cfg.BaseURL),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: requestTimeout},
		cache:   newResponseCache(cfg.CachePath, cfg.CacheEnabled),
		bus:     bus,
		log:     log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) emit(stage, detail string, attempt int) {
	c.bus.Publish(progress.AdvisoryEvent{
		Stage:     stage,
		Detail:    detail,
		Attempt:   attempt,
		Timestamp: time.Now(),
	})
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// Request sends the analysis payload and returns the normalized response.
// The payload must already be serializable; its serialized form is also the
// cache key. On failure every attempt's error is aggregated into one.
func (c *Client) Request(ctx context.Context, payload interface{}) (*advisor.RemoteResult, error) {
	c.emit(progress.StagePrepare, "正在准备 AI 请求数据...", 0)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	key := c.cache.Key(body)

	if cached, ok := c.cache.Get(key); ok {
		c.emit(progress.StageCacheHit, "已命中本地缓存。", 0)
		result, err := ParseResult(cached)
		if err == nil {
			return result, nil
		}
		c.log.Warn("cached advisory response unreadable, refetching",
			zap.String("key", key), zap.Error(err))
	}
	c.emit(progress.StageCacheMiss, "未命中缓存，准备发起请求...", 0)

	requestID := uuid.NewString()
	chatBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(body)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	var attemptErrs []error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(1<<(attempt-2)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		c.emit(progress.StageRequest, fmt.Sprintf("调用模型接口（第 %d/%d 次）...", attempt, maxAttempts), attempt)
		result, err := c.attempt(ctx, chatBody, requestID)
		if err == nil {
			if cacheable, marshalErr := json.Marshal(result); marshalErr == nil {
				if putErr := c.cache.Put(key, cacheable); putErr != nil {
					c.log.Warn("write advisory cache", zap.Error(putErr))
				}
			}
			c.emit(progress.StageDone, "AI 分析完成。", attempt)
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		attemptErrs = append(attemptErrs, fmt.Errorf("attempt %d: %w", attempt, err))
		c.log.Warn("advisory request failed",
			zap.String("request_id", requestID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		c.emit(progress.StageRetry, fmt.Sprintf("第 %d 次失败：%v", attempt, err), attempt)
	}

	final := errors.Join(attemptErrs...)
	c.emit(progress.StageFailed, fmt.Sprintf("AI 分析失败：%v", final), maxAttempts)
	return nil, fmt.Errorf("advisory call failed: %w", final)
}

func (c *Client) attempt(ctx context.Context, chatBody []byte, requestID string) (*advisor.RemoteResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(chatBody))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned %s: %s", resp.Status, truncate(string(data), 200))
	}

	c.emit(progress.StageParse, "正在解析模型返回...", 0)
	var chat chatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, errors.New("response missing choices")
	}
	return ParseResult([]byte(ExtractJSON(chat.Choices[0].Message.Content)))
}

// ListModels fetches the endpoint's model list, preserving order and dropping
// duplicates and blank ids.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, modelsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned %s", resp.Status)
	}

	var listing struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}

	seen := make(map[string]bool, len(listing.Data))
	models := make([]string, 0, len(listing.Data))
	for _, entry := range listing.Data {
		id := strings.TrimSpace(entry.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		models = append(models, id)
	}
	return models, nil
}

// TestConnection sends a minimal chat completion and returns the model's
// reply. It validates the configuration before touching the network.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("%w: base URL is empty", ErrNotConfigured)
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: API key is empty", ErrNotConfigured)
	}
	if c.model == "" {
		return "", fmt.Errorf("%w: model is empty", ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful assistant."},
			{Role: "user", Content: "请回复：连接测试成功"},
		},
		Temperature: 0,
		MaxTokens:   20,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("endpoint returned %s: %s", resp.Status, truncate(string(data), 200))
	}

	var chat chatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", errors.New("endpoint reachable but response missing choices")
	}
	reply := strings.TrimSpace(chat.Choices[0].Message.Content)
	if reply == "" {
		reply = "连接成功，但返回内容为空。"
	}
	return reply, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
