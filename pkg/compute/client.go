// Package compute provides a client for a Rhino.Compute style geometry
// backend that solves Grasshopper definitions.
package compute

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the compute server operations.
type Client interface {
	// Solve runs a Grasshopper definition with the given input values.
	Solve(ctx context.Context, def Definition) (*SolveResponse, error)
	// Health checks that the compute server is reachable.
	Health(ctx context.Context) error
}

// DataTree is one parameter's branch map, keyed by Grasshopper path
// (for example "{0;0}").
type DataTree struct {
	ParamName string                `json:"ParamName"`
	InnerTree map[string][]TreeItem `json:"InnerTree"`
}

// TreeItem is a single tree leaf. Data carries the JSON-encoded value, so a
// string leaf arrives double-quoted.
type TreeItem struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Definition is one solve request: the Grasshopper file plus input values.
// Algo carries the base64 definition inline; Pointer names a definition
// already cached on the server. Exactly one of the two must be set.
type Definition struct {
	Algo    string
	Pointer string
	Values  []DataTree
}

type solveRequest struct {
	Algo    *string    `json:"algo"`
	Pointer *string    `json:"pointer"`
	Values  []DataTree `json:"values"`
}

// SolveResponse is the parsed compute response.
type SolveResponse struct {
	Values   []DataTree `json:"values"`
	Errors   []string   `json:"errors"`
	Warnings []string   `json:"warnings"`
}

// Output returns the decoded first leaf of the named output parameter.
// Grasshopper prefixes outputs with "RH_OUT:", so both the bare and the
// prefixed name match. Branches are scanned in sorted key order.
func (r *SolveResponse) Output(name string) (string, bool) {
	for _, tree := range r.Values {
		if tree.ParamName != name && tree.ParamName != "RH_OUT:"+name {
			continue
		}
		keys := make([]string, 0, len(tree.InnerTree))
		for k := range tree.InnerTree {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, item := range tree.InnerTree[k] {
				return decodeLeaf(item.Data), true
			}
		}
	}
	return "", false
}

// decodeLeaf unwraps a JSON-encoded string leaf. Non-string leaves come back
// verbatim.
func decodeLeaf(data string) string {
	var s string
	if err := json.Unmarshal([]byte(data), &s); err == nil {
		return s
	}
	return data
}

// StringValue builds a single-branch input tree for one string parameter.
func StringValue(name, value string) DataTree {
	return DataTree{
		ParamName: name,
		InnerTree: map[string][]TreeItem{
			"{0}": {{Type: "System.String", Data: strconv.Quote(value)}},
		},
	}
}

// NumberValue builds a single-branch input tree for one numeric parameter.
func NumberValue(name string, value float64) DataTree {
	return DataTree{
		ParamName: name,
		InnerTree: map[string][]TreeItem{
			"{0}": {{Type: "System.Double", Data: strconv.FormatFloat(value, 'g', -1, 64)}},
		},
	}
}

// LoadDefinition reads a Grasshopper definition file and encodes it for
// transport.
func LoadDefinition(path string, values ...DataTree) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, eris.Wrapf(err, "compute: read definition %s", path)
	}
	return Definition{Algo: base64.StdEncoding.EncodeToString(data), Values: values}, nil
}

// Option configures the compute client.
type Option func(*httpClient)

// WithToken sets the RhinoComputeKey auth header value.
func WithToken(token string) Option {
	return func(c *httpClient) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit replaces the default request rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxAttempts sets the number of attempts per request.
func WithMaxAttempts(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

type httpClient struct {
	baseURL     string
	token       string
	http        *http.Client
	limiter     *rate.Limiter
	maxAttempts int
}

// NewClient creates a new compute client. Solves are long-running, so the
// default timeout is generous.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:     rate.NewLimiter(2, 1),
		maxAttempts: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes a request with exponential backoff retries on transient
// failures (429, 500, 502, 503). The body is rebuilt from payload on every
// attempt; a consumed reader cannot be retried.
func (c *httpClient) retryDo(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, eris.Wrap(err, "compute: rate limiter wait")
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, 0, eris.Wrap(err, "compute: create request")
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("RhinoComputeKey", c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "compute: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < c.maxAttempts {
			lastErr = eris.Errorf("compute: status %d: %s", resp.StatusCode, string(respBody))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return respBody, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) Solve(ctx context.Context, def Definition) (*SolveResponse, error) {
	if def.Algo == "" && def.Pointer == "" {
		return nil, eris.New("compute: definition needs algo or pointer")
	}

	reqBody := solveRequest{Values: def.Values}
	if def.Algo != "" {
		reqBody.Algo = &def.Algo
	}
	if def.Pointer != "" {
		reqBody.Pointer = &def.Pointer
	}
	if reqBody.Values == nil {
		reqBody.Values = []DataTree{}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "compute: marshal request")
	}

	body, statusCode, err := c.retryDo(ctx, http.MethodPost, c.baseURL+"/grasshopper", payload)
	if err != nil {
		return nil, eris.Wrap(err, "compute: solve request failed")
	}

	if statusCode != http.StatusOK {
		return nil, eris.Errorf("compute: unexpected status %d: %s", statusCode, string(body))
	}

	var result SolveResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "compute: unmarshal response")
	}

	if len(result.Errors) > 0 {
		return nil, eris.Errorf("compute: definition errors: %s", strings.Join(result.Errors, "; "))
	}

	return &result, nil
}

func (c *httpClient) Health(ctx context.Context) error {
	body, statusCode, err := c.retryDo(ctx, http.MethodGet, c.baseURL+"/healthcheck", nil)
	if err != nil {
		return eris.Wrap(err, "compute: health request failed")
	}

	if statusCode != http.StatusOK {
		return eris.Errorf("compute: unhealthy, status %d: %s", statusCode, string(body))
	}

	return nil
}
