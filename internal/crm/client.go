// Package crm provides the HTTP client for the remote CRM backend that owns
// lead persistence. The board engine never talks to the backend except
// through this client.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"leadboard_backend/internal/board/domain"
	"leadboard_backend/platform/apperr"
	"leadboard_backend/platform/config"
	"leadboard_backend/platform/logger"

	"golang.org/x/time/rate"
)

// ListQuery carries the server-side filter axes of a lead fetch.
type ListQuery struct {
	Status   string
	Platform string
	Search   string
	Limit    int
	Offset   int
}

// Client is the HTTP client for the CRM backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	limiter    *rate.Limiter
	log        *logger.Logger
}

// New creates a CRM client from config.
func New(cfg config.CRMConfig, log *logger.Logger) *Client {
	timeout := cfg.GetCRMTimeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	rps := cfg.GetCRMRequestsPerSecond()
	if rps <= 0 {
		rps = 10
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.GetCRMBaseURL(),
		apiToken:   cfg.GetCRMAPIToken(),
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		log:        log,
	}
}

// ListLeads fetches leads matching the query.
func (c *Client) ListLeads(ctx context.Context, q ListQuery) ([]domain.Lead, error) {
	params := url.Values{}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Platform != "" {
		params.Set("source_platform", q.Platform)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	reqURL := c.baseURL + "/leads"
	if encoded := params.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	var envelope leadEnvelope
	if err := c.doJSON(ctx, http.MethodGet, reqURL, nil, &envelope); err != nil {
		return nil, err
	}

	leads := make([]domain.Lead, len(envelope.Data))
	for i, w := range envelope.Data {
		leads[i] = w.toDomain()
	}
	return leads, nil
}

// UpdateStatus commits a status transition on the backend.
func (c *Client) UpdateStatus(ctx context.Context, leadID string, status domain.LeadStatus, reason string) error {
	reqURL := fmt.Sprintf("%s/leads/%s/status", c.baseURL, url.PathEscape(leadID))
	body := updateStatusRequest{Status: string(status), Reason: reason}
	return c.doJSON(ctx, http.MethodPut, reqURL, body, nil)
}

// StatusHistory fetches the raw (uncollapsed) audit trail for a lead.
func (c *Client) StatusHistory(ctx context.Context, leadID string) ([]domain.StatusHistoryEntry, error) {
	reqURL := fmt.Sprintf("%s/leads/%s/status-history", c.baseURL, url.PathEscape(leadID))

	var envelope historyEnvelope
	if err := c.doJSON(ctx, http.MethodGet, reqURL, nil, &envelope); err != nil {
		return nil, err
	}

	entries := make([]domain.StatusHistoryEntry, len(envelope.Data))
	for i, w := range envelope.Data {
		entries[i] = w.toDomain()
	}
	return entries, nil
}

// Conversations fetches the most recent messages for a lead.
func (c *Client) Conversations(ctx context.Context, leadID string, limit int) ([]domain.Conversation, error) {
	reqURL := fmt.Sprintf("%s/leads/%s/conversations", c.baseURL, url.PathEscape(leadID))
	if limit > 0 {
		reqURL += "?limit=" + strconv.Itoa(limit)
	}

	var envelope conversationEnvelope
	if err := c.doJSON(ctx, http.MethodGet, reqURL, nil, &envelope); err != nil {
		return nil, err
	}

	conversations := make([]domain.Conversation, len(envelope.Data))
	for i, w := range envelope.Data {
		conversations[i] = w.toDomain()
	}
	return conversations, nil
}

// SendMessage posts an outbound message; delivery is the backend's concern.
func (c *Client) SendMessage(ctx context.Context, leadID, content string, messageType domain.MessageType) error {
	reqURL := fmt.Sprintf("%s/leads/%s/messages", c.baseURL, url.PathEscape(leadID))
	body := sendMessageRequest{Content: content, MessageType: string(messageType)}
	return c.doJSON(ctx, http.MethodPost, reqURL, body, nil)
}

// SetFollowUp sets or clears (nil) the follow-up instant for a lead.
func (c *Client) SetFollowUp(ctx context.Context, leadID string, at *time.Time) error {
	reqURL := fmt.Sprintf("%s/leads/%s/follow-up", c.baseURL, url.PathEscape(leadID))

	body := followUpRequest{}
	if at != nil {
		formatted := at.UTC().Format(time.RFC3339)
		body.FollowUpAt = &formatted
	}
	return c.doJSON(ctx, http.MethodPut, reqURL, body, nil)
}

// DeleteLead removes a single lead.
func (c *Client) DeleteLead(ctx context.Context, leadID string) error {
	reqURL := fmt.Sprintf("%s/leads/%s", c.baseURL, url.PathEscape(leadID))
	return c.doJSON(ctx, http.MethodDelete, reqURL, nil, nil)
}

// BulkDelete removes a batch of leads in one request.
func (c *Client) BulkDelete(ctx context.Context, ids []string) (BulkDeleteResult, error) {
	reqURL := c.baseURL + "/leads/bulk-delete"

	var result BulkDeleteResult
	if err := c.doJSON(ctx, http.MethodPost, reqURL, bulkDeleteRequest{IDs: ids}, &result); err != nil {
		return BulkDeleteResult{}, err
	}
	return result, nil
}

// ImportCSV uploads a CSV file; row validation and dedup happen remotely.
func (c *Client) ImportCSV(ctx context.Context, filename string, file io.Reader) (ImportSummary, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return ImportSummary{}, apperr.Wrap(apperr.KindInternal, "build multipart body", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return ImportSummary{}, apperr.Wrap(apperr.KindInternal, "read upload", err)
	}
	if err := writer.Close(); err != nil {
		return ImportSummary{}, apperr.Wrap(apperr.KindInternal, "finalize multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/leads/import-csv", &buf)
	if err != nil {
		return ImportSummary{}, apperr.Wrap(apperr.KindInternal, "create request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var summary ImportSummary
	if err := c.do(req, &summary); err != nil {
		return ImportSummary{}, err
	}
	return summary, nil
}

func (c *Client) doJSON(ctx context.Context, method, reqURL string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "encode request", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest interface{}) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "rate limit wait", err)
	}

	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.UpstreamError(req.Method+" "+req.URL.Path, err)
		return apperr.Wrap(apperr.KindUnavailable, "crm backend unreachable", err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		c.log.UpstreamError(req.Method+" "+req.URL.Path, err)
		return err
	}

	if dest == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return apperr.Wrap(apperr.KindInternal, "decode response", err)
	}
	return nil
}

func mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperr.Unauthorized("session expired")
	case resp.StatusCode == http.StatusNotFound:
		return apperr.NotFound("lead not found")
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return apperr.Validation("crm backend rejected the request")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return apperr.BadRequest(fmt.Sprintf("crm backend rejected the request: status %d", resp.StatusCode))
	default:
		return apperr.Unavailable(fmt.Sprintf("crm backend error: status %d", resp.StatusCode))
	}
}
