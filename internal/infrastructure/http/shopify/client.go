package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/config"
	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
)

// tokenBuffer refreshes the cached access token this long before expiry.
const tokenBuffer = 5 * time.Minute

var validStatuses = map[string]bool{
	"any":       true,
	"open":      true,
	"closed":    true,
	"cancelled": true,
}

// Client talks to the Shopify Admin GraphQL API. Transient upstream
// failures trip the circuit breaker and surface as domain FetchErrors.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cfg        config.ShopifyConfig

	// graphqlURL/tokenURL override the store-derived endpoints in tests.
	graphqlURL string
	tokenURL   string

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(cfg config.ShopifyConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		graphqlURL: cfg.GraphQLURL(),
		tokenURL:   cfg.OAuthTokenURL(),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
			},
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "shopify-graphql",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// FetchOrders pulls up to limit (clamped to 1–250) orders matching status
// (any|open|closed|cancelled) and returns the raw GraphQL nodes.
func (c *Client) FetchOrders(ctx context.Context, limit int, status string) ([]json.RawMessage, error) {
	if !c.cfg.UseClientCredentials() && c.cfg.AccessToken == "" {
		return nil, fmt.Errorf("shopify auth is not configured")
	}
	if status == "" {
		status = "any"
	}
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 250 {
		limit = 250
	}

	variables := map[string]any{"first": limit}
	if status != "any" {
		variables["query"] = "status:" + status
	}

	data, err := c.graphqlRequest(ctx, ordersQuery, variables)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Orders struct {
			Edges []struct {
				Node json.RawMessage `json:"node"`
			} `json:"edges"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &domain.FetchError{Cause: fmt.Errorf("decode orders: %w", err)}
	}

	nodes := make([]json.RawMessage, 0, len(parsed.Orders.Edges))
	for _, edge := range parsed.Orders.Edges {
		if len(edge.Node) > 0 {
			nodes = append(nodes, edge.Node)
		}
	}
	return nodes, nil
}

func (c *Client) graphqlRequest(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, &domain.FetchError{Cause: err}
	}

	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, &domain.FetchError{Cause: fmt.Errorf("encode request: %w", err)}
	}

	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Shopify-Access-Token", token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("call shopify graphql: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("shopify graphql status %d", resp.StatusCode)
		}

		var body struct {
			Data   json.RawMessage `json:"data"`
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if len(body.Errors) > 0 {
			msgs := make([]string, 0, len(body.Errors))
			for _, e := range body.Errors {
				msgs = append(msgs, e.Message)
			}
			return nil, fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; "))
		}
		return body.Data, nil
	})
	if err != nil {
		return nil, &domain.FetchError{Cause: err}
	}
	return result.(json.RawMessage), nil
}

// accessToken prefers the client-credentials grant with a cached token,
// falling back to the static token from config.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if !c.cfg.UseClientCredentials() {
		return c.cfg.AccessToken, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("access token status %d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}
	expiresIn := time.Duration(body.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	c.token = body.AccessToken
	c.tokenExp = time.Now().Add(expiresIn - tokenBuffer)
	return c.token, nil
}
