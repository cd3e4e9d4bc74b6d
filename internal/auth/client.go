package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"aishell/pkg/shelltypes"
)

// maxErrorBody bounds how much of an error response body is kept in a RequestError.
const maxErrorBody = 512

// SessionConfig is the part of the session the request client depends on.
type SessionConfig interface {
	HTTPClient() *http.Client
}

// TokenSourceProvider yields OAuth token sources per strategy.
type TokenSourceProvider interface {
	TokenSource(ctx context.Context, authType shelltypes.AuthType) (oauth2.TokenSource, error)
}

// RequestOptions describes one request.
type RequestOptions struct {
	URL    string
	Method string
}

// Response is the decoded result of a request. Data holds the decoded JSON
// value, or the raw body as a string when it is not valid JSON.
type Response struct {
	Status int
	Data   any
}

// Requester issues authenticated requests.
type Requester interface {
	Request(ctx context.Context, opts RequestOptions) (*Response, error)
}

// OAuthClientProvider builds authenticated request clients.
type OAuthClientProvider struct {
	tokens TokenSourceProvider
}

// NewOAuthClientProvider creates a provider backed by tokens.
func NewOAuthClientProvider(tokens TokenSourceProvider) *OAuthClientProvider {
	return &OAuthClientProvider{tokens: tokens}
}

// GetClient returns a request client authorised for authType, layered on the session's HTTP client.
func (p *OAuthClientProvider) GetClient(ctx context.Context, authType shelltypes.AuthType, sess SessionConfig) (Requester, error) {
	ts, err := p.tokens.TokenSource(ctx, authType)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth token source: %w", err)
	}

	base := http.DefaultClient
	if sess != nil && sess.HTTPClient() != nil {
		base = sess.HTTPClient()
	}
	clientCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	return &RequestClient{http: oauth2.NewClient(clientCtx, ts)}, nil
}

// RequestClient is an HTTP client whose failures are reported as *RequestError.
type RequestClient struct {
	http *http.Client
}

// NewRequestClient wraps an already-authorised HTTP client.
func NewRequestClient(client *http.Client) *RequestClient {
	return &RequestClient{http: client}
}

// Request performs the request. Non-2xx responses and transport failures return *RequestError.
func (c *RequestClient) Request(ctx context.Context, opts RequestOptions) (*Response, error) {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		reqErr := &RequestError{Err: err}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			reqErr.Code = retrieveErr.Response.StatusCode
		}
		return nil, reqErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{ResponseStatus: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &RequestError{
			Code:           resp.StatusCode,
			ResponseStatus: resp.StatusCode,
			Message:        msg,
		}
	}

	return &Response{Status: resp.StatusCode, Data: decodeBody(body)}, nil
}

func decodeBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return string(body)
	}
	return data
}
