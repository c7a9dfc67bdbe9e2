package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pos-floor-backend/config"
	"pos-floor-backend/internal/model"
)

// envelope is the session store's uniform response wrapper. A non-zero
// code is an application-level rejection, not a transport failure.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// HTTPClient talks to the session store over HTTP+JSON.
type HTTPClient struct {
	baseURL string
	headers map[string]string
	client  *http.Client
}

// NewHTTPClient builds a client from configuration.
func NewHTTPClient(cfg *config.SessionStoreConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		headers: cfg.Headers,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

var _ Client = (*HTTPClient)(nil)

// do performs one request and decodes the envelope's data into out, when
// out is non-nil. A "data": null with code 0 leaves out untouched.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("failed to unmarshal store response: %w", err)
	}
	if env.Code != 0 {
		return &APIError{Code: env.Code, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal store response data: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) ListTables(ctx context.Context) ([]model.TableRecord, error) {
	var tables []model.TableRecord
	if err := c.do(ctx, http.MethodGet, "/tables", nil, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (c *HTTPClient) UpsertTables(ctx context.Context, tables []model.TableRecord) error {
	return c.do(ctx, http.MethodPut, "/tables", tables, nil)
}

func (c *HTTPClient) StartSession(ctx context.Context, label, serverID, serverName string) (StartResult, error) {
	payload := map[string]string{
		"label":      label,
		"serverId":   serverID,
		"serverName": serverName,
	}
	var res StartResult
	if err := c.do(ctx, http.MethodPost, "/sessions/start", payload, &res); err != nil {
		return StartResult{}, err
	}
	return res, nil
}

func (c *HTTPClient) StopSession(ctx context.Context, label string) (StopResult, error) {
	payload := map[string]string{"label": label}
	var res StopResult
	if err := c.do(ctx, http.MethodPost, "/sessions/stop", payload, &res); err != nil {
		return StopResult{}, err
	}
	return res, nil
}

func (c *HTTPClient) MoveSession(ctx context.Context, fromLabel, toLabel string) error {
	payload := map[string]string{"from": fromLabel, "to": toLabel}
	return c.do(ctx, http.MethodPost, "/sessions/move", payload, nil)
}

func (c *HTTPClient) GetActiveSession(ctx context.Context, label string) (*model.ActiveSession, error) {
	var sess *model.ActiveSession
	path := "/sessions/active?label=" + url.QueryEscape(label)
	if err := c.do(ctx, http.MethodGet, path, nil, &sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *HTTPClient) ListActiveSessions(ctx context.Context) ([]model.ActiveSession, error) {
	var sessions []model.ActiveSession
	if err := c.do(ctx, http.MethodGet, "/sessions/active", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) GetSessionItems(ctx context.Context, label string) ([]model.LineItem, error) {
	var items []model.LineItem
	path := "/sessions/items?label=" + url.QueryEscape(label)
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) CloseOrders(ctx context.Context, label string) error {
	payload := map[string]string{"label": label}
	return c.do(ctx, http.MethodPost, "/orders/close", payload, nil)
}
