package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// queryRequest is the wire body for the warehouse's synchronous query call.
type queryRequest struct {
	Query           string           `json:"query"`
	ParameterMode   string           `json:"parameterMode"`
	QueryParameters []QueryParameter `json:"queryParameters"`
	UseLegacySQL    bool             `json:"useLegacySql"`
	MaxResults      int              `json:"maxResults"`
}

type RowField struct {
	V any `json:"v"`
}

type Row struct {
	F []RowField `json:"f"`
}

type QueryResponse struct {
	Rows        []Row  `json:"rows"`
	TotalRows   string `json:"totalRows"`
	JobComplete bool   `json:"jobComplete"`
}

// Client issues built queries against the warehouse REST API. One POST per
// call, no retries; failures carry the upstream status and body.
type Client struct {
	baseURL   string
	projectID string
	http      *http.Client
}

func NewClient(baseURL, projectID string) *Client {
	return &Client{
		baseURL:   baseURL,
		projectID: projectID,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Execute(ctx context.Context, q *BuiltQuery, token *BearerToken) (*QueryResponse, error) {
	body, err := json.Marshal(queryRequest{
		Query:           q.SQL,
		ParameterMode:   "NAMED",
		QueryParameters: q.Parameters,
		UseLegacySQL:    false,
		MaxResults:      q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/projects/%s/queries", c.baseURL, c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("warehouse request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read warehouse response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var result QueryResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode warehouse response: %w", err)
	}

	return &result, nil
}
