package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.adobe.io"

	headerAPIKey    = "x-api-key"
	headerOrgID     = "x-ims-org-id"
	headerRequestID = "x-request-id"
)

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type Client struct {
	BaseURL        string
	HTTP           HTTPClient
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Sleep          func(time.Duration)
	UserAgent      string
	NewRequestID   func() string
	Logger         *zap.Logger
}

// Credentials are attached to every request issued on behalf of a workspace.
type Credentials struct {
	AccessToken string
	APIKey      string
	OrgCode     string
}

type Request struct {
	Method      string
	Path        string
	Query       map[string]string
	Body        any
	Credentials Credentials
}

type Response struct {
	StatusCode int
	Raw        []byte
	Headers    http.Header
	RequestID  string
}

func NewClient(httpClient HTTPClient, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		BaseURL:        strings.TrimSuffix(baseURL, "/"),
		HTTP:           httpClient,
		MaxRetries:     4,
		InitialBackoff: 300 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Sleep:          time.Sleep,
		UserAgent:      "eventscli/1.0",
		NewRequestID:   uuid.NewString,
	}
}

func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	if req.Path == "" {
		return nil, errors.New("events request path is required")
	}

	var payload []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	attempt := 0
	backoff := c.InitialBackoff
	log := c.logger().With(zap.String("method", method), zap.String("path", req.Path))

	for {
		attempt++
		log.Debug("events request", zap.Int("attempt", attempt))
		response, err := c.doOnce(ctx, method, req, payload)
		if err == nil {
			log.Debug("events response", zap.Int("status", response.StatusCode), zap.String("request_id", response.RequestID))
			return response, nil
		}

		if attempt > c.MaxRetries || !retryable(method, err) {
			return nil, err
		}
		log.Debug("retrying events request", zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
		c.Sleep(backoff)
		backoff = nextBackoff(backoff, c.MaxBackoff)
	}
}

// retryable reports whether a failed attempt may be sent again. A POST that
// reached the service may already have created the resource, so POST is only
// retried when the service throttled it.
func retryable(method string, err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if !apiErr.Retryable {
			return false
		}
		return method != http.MethodPost || apiErr.StatusCode == http.StatusTooManyRequests
	}
	var transient *TransientError
	if errors.As(err, &transient) {
		return method != http.MethodPost
	}
	return false
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// DoJSON executes the request and decodes a non-empty response body into target.
func (c *Client) DoJSON(ctx context.Context, req Request, target any) (*Response, error) {
	response, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if target == nil || len(bytes.TrimSpace(response.Raw)) == 0 {
		return response, nil
	}
	if err := json.Unmarshal(response.Raw, target); err != nil {
		return nil, fmt.Errorf("decode %s %s response: %w", strings.ToUpper(req.Method), req.Path, err)
	}
	return response, nil
}

func (c *Client) doOnce(ctx context.Context, method string, req Request, payload []byte) (*Response, error) {
	endpoint, err := c.resolveURL(req.Path)
	if err != nil {
		return nil, err
	}

	query := endpoint.Query()
	for key, value := range req.Query {
		query.Set(key, value)
	}
	endpoint.RawQuery = query.Encode()

	bodyReader := io.Reader(nil)
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build events request: %w", err)
	}
	requestID := ""
	if c.NewRequestID != nil {
		requestID = c.NewRequestID()
	}
	httpReq.Header.Set("Accept", "application/hal+json, application/json")
	httpReq.Header.Set("User-Agent", c.UserAgent)
	if requestID != "" {
		httpReq.Header.Set(headerRequestID, requestID)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Credentials.AccessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Credentials.AccessToken)
	}
	if req.Credentials.APIKey != "" {
		httpReq.Header.Set(headerAPIKey, req.Credentials.APIKey)
	}
	if req.Credentials.OrgCode != "" {
		httpReq.Header.Set(headerOrgID, req.Credentials.OrgCode)
	}

	httpRes, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, &TransientError{Message: fmt.Sprintf("send request: %v", err)}
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, &TransientError{Message: fmt.Sprintf("read response: %v", err)}
	}

	if httpRes.StatusCode < 200 || httpRes.StatusCode >= 300 {
		apiErr := parseAPIError(httpRes.StatusCode, body)
		if apiErr.RequestID == "" {
			apiErr.RequestID = firstNonEmpty(httpRes.Header.Get(headerRequestID), requestID)
		}
		return nil, apiErr
	}

	return &Response{
		StatusCode: httpRes.StatusCode,
		Raw:        body,
		Headers:    httpRes.Header.Clone(),
		RequestID:  firstNonEmpty(httpRes.Header.Get(headerRequestID), requestID),
	}, nil
}

// resolveURL accepts either a path relative to BaseURL or an absolute link
// returned by the service in a HAL _links block.
func (c *Client) resolveURL(target string) (*url.URL, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		parsed, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("parse events link %q: %w", target, err)
		}
		return parsed, nil
	}
	endpoint, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse events base url: %w", err)
	}
	relative, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse events request path %q: %w", target, err)
	}
	endpoint.Path = path.Join(endpoint.Path, relative.Path)
	endpoint.RawQuery = relative.RawQuery
	return endpoint, nil
}

func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Retryable:  ShouldRetry(statusCode),
	}

	payload := map[string]any{}
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &payload) != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(statusCode)
		}
		return apiErr
	}

	// Some gateways nest the error object under "error".
	if nested, ok := payload["error"].(map[string]any); ok {
		payload = nested
	}

	apiErr.Code = firstNonEmpty(stringFromAny(payload["error_code"]), stringFromAny(payload["code"]))
	apiErr.Message = firstNonEmpty(stringFromAny(payload["message"]), stringFromAny(payload["reason"]))
	apiErr.RequestID = stringFromAny(payload["request_id"])
	if details, ok := payload["errorDetails"].(map[string]any); ok && apiErr.Message == "" {
		apiErr.Message = stringFromAny(details["message"])
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

func ShouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func stringFromAny(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	case int:
		return strconv.Itoa(typed)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
