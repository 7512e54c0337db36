package incidents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the PagerDuty REST API root.
	DefaultBaseURL = "https://api.pagerduty.com"
	// DefaultTimeout bounds one HTTP request.
	DefaultTimeout = 30 * time.Second
	// PageSize is the number of incidents requested per page.
	PageSize = 100

	acceptHeader = "application/vnd.pagerduty+json;version=2"
)

var (
	// ErrMissingAPIKey is returned by NewClient without an API key.
	ErrMissingAPIKey = errors.New("PagerDuty API key is not set")
	// ErrMissingEmail is returned by NewClient without a From address.
	ErrMissingEmail = errors.New("email address is required")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("PagerDuty API returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("PagerDuty API returned %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// ClientOptions configures a Client.
type ClientOptions struct {
	APIKey     string
	Email      string        // sent as the From header
	BaseURL    string        // defaults to DefaultBaseURL
	Timeout    time.Duration // defaults to DefaultTimeout
	HTTPClient *http.Client  // overrides Timeout when set
}

// Client is a read-only client for the incidents endpoint.
type Client struct {
	apiKey     string
	email      string
	baseURL    string
	httpClient *http.Client
}

// NewClient validates opts and returns a client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Email == "" {
		return nil, ErrMissingEmail
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiKey:     opts.APIKey,
		email:      opts.Email,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

type listResponse struct {
	Incidents []Incident `json:"incidents"`
	More      bool       `json:"more"`
	Offset    int        `json:"offset"`
	Limit     int        `json:"limit"`
}

// ListIncidents returns every incident created in [since, until), following
// offset pagination until the API reports no more pages.
func (c *Client) ListIncidents(ctx context.Context, since, until time.Time) ([]Incident, error) {
	var all []Incident

	offset := 0
	for {
		page, err := c.listPage(ctx, since, until, offset)
		if err != nil {
			return all, err
		}

		all = append(all, page.Incidents...)

		if !page.More || len(page.Incidents) == 0 {
			return all, nil
		}
		offset += len(page.Incidents)
	}
}

func (c *Client) listPage(ctx context.Context, since, until time.Time, offset int) (listResponse, error) {
	query := url.Values{}
	query.Set("since", since.UTC().Format(time.RFC3339))
	query.Set("until", until.UTC().Format(time.RFC3339))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/incidents?"+query.Encode(), http.NoBody)
	if err != nil {
		return listResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Token token="+c.apiKey)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("From", c.email)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return listResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return listResponse{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return listResponse{}, newAPIError(resp.StatusCode, body)
	}

	var page listResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return listResponse{}, fmt.Errorf("decode incidents page: %w", err)
	}

	return page, nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Message = envelope.Error.Message
	}

	return apiErr
}
