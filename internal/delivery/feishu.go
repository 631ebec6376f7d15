// Package delivery posts the finished briefing to a Feishu Bitable table.
// This is a thin outbound collaborator: one authenticated record insert per
// briefing, with bounded retry on transport hiccups.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deusflow/NewsBrief/internal/logger"
	"github.com/deusflow/NewsBrief/internal/retry"
)

const defaultBaseURL = "https://open.feishu.cn"

const (
	maxAttempts = 3
	retryDelay  = 2 * time.Second
)

type FeishuClient struct {
	baseURL   string
	appID     string
	appSecret string
	appToken  string
	tableID   string
	client    *http.Client
}

func NewFeishuClient(appID, appSecret, appToken, tableID string) *FeishuClient {
	return &FeishuClient{
		baseURL:   defaultBaseURL,
		appID:     appID,
		appSecret: appSecret,
		appToken:  appToken,
		tableID:   tableID,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SendBriefing inserts one record with the briefing text and its date into
// the configured Bitable table.
func (c *FeishuClient) SendBriefing(ctx context.Context, date time.Time, content string) error {
	err := retry.Do(ctx, maxAttempts, retryDelay, func() error {
		return c.sendOnce(ctx, date, content)
	})
	if err != nil {
		return fmt.Errorf("failed to deliver briefing: %w", err)
	}
	return nil
}

func (c *FeishuClient) sendOnce(ctx context.Context, date time.Time, content string) error {
	token, err := c.tenantAccessToken(ctx)
	if err != nil {
		return err
	}

	// The date column is a Date field; Feishu accepts a Unix timestamp in
	// milliseconds, pinned to midnight.
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	payload := map[string]interface{}{
		"fields": map[string]interface{}{
			"日期": day.UnixMilli(),
			"内容": content,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	url := fmt.Sprintf("%s/open-apis/bitable/v1/apps/%s/tables/%s/records", c.baseURL, c.appToken, c.tableID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build record request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("record request failed: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feishu API error: status %d", resp.StatusCode)
	}

	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			Record struct {
				RecordID string `json:"record_id"`
			} `json:"record"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode record response: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("feishu API error: code %d: %s", result.Code, result.Msg)
	}

	logger.Info("briefing delivered to Feishu", "record_id", result.Data.Record.RecordID)
	return nil
}

func (c *FeishuClient) tenantAccessToken(ctx context.Context) (string, error) {
	payload := map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	url := c.baseURL + "/open-apis/auth/v3/tenant_access_token/internal"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to obtain tenant_access_token: status %d", resp.StatusCode)
	}

	var result struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.Code != 0 {
		return "", fmt.Errorf("failed to obtain tenant_access_token: code %d: %s", result.Code, result.Msg)
	}

	return result.TenantAccessToken, nil
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		logger.Warn("failed to close response body", "error", err)
	}
}
