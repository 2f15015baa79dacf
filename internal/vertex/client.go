// Package vertex is a minimal client for Vertex AI publisher model
// :predict calls, authenticated with Google service-account credentials.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var tracer = otel.Tracer("dreambig-vertex")

// CloudPlatformScope is the OAuth scope required by :predict.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// DefaultTimeout bounds a single predict call. Image generation is slow.
const DefaultTimeout = 120 * time.Second

// Options configures a Client.
type Options struct {
	ProjectID string
	Region    string
	// CredentialsJSON is an inline service-account key. When empty,
	// CredentialsFile is read, then application default credentials.
	CredentialsJSON string
	CredentialsFile string
	// BaseURL replaces https://{region}-aiplatform.googleapis.com.
	BaseURL string
	// TokenSource skips credential discovery entirely.
	TokenSource oauth2.TokenSource
	HTTPClient  *http.Client
}

// Client calls :predict on publisher models.
type Client struct {
	opts       Options
	baseURL    string
	httpClient *http.Client

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

// NewClient creates a client. Credentials are resolved on the first call.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", opts.Region)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		opts:       opts,
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     opts.TokenSource,
	}
}

// Endpoint returns the :predict URL for model.
func (c *Client) Endpoint(model string) string {
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		c.baseURL, c.opts.ProjectID, c.opts.Region, model)
}

// Predict sends req to model and returns the first generated image. Every
// failure is an *APIError.
func (c *Client) Predict(ctx context.Context, model string, req *PredictRequest) (*GeneratedImage, error) {
	ctx, span := tracer.Start(ctx, "vertex_predict")
	defer span.End()
	span.SetAttributes(attribute.String("vertex.model", model))

	image, err := c.predict(ctx, model, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "predict failed")
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			span.SetAttributes(attribute.Int("http.status_code", apiErr.StatusCode))
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("vertex.mime_type", image.MimeType))
	return image, nil
}

func (c *Client) predict(ctx context.Context, model string, req *PredictRequest) (*GeneratedImage, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: MsgAuthFailed, Cause: err}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(model), bytes.NewReader(body))
	if err != nil {
		return nil, &APIError{Message: MsgNetworkError, Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token.AccessToken)

	log.Printf("[vertex] calling %s", model)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{Message: MsgNetworkError, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: MsgNetworkError, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[vertex] %s returned status %d", model, resp.StatusCode)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    StatusMessage(resp.StatusCode),
			Body:       truncate(string(respBody), 2048),
		}
	}

	var result PredictResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: MsgInvalidResponse, Cause: err}
	}
	if len(result.Predictions) == 0 || result.Predictions[0].BytesBase64Encoded == "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: MsgInvalidResponse, Body: truncate(string(respBody), 2048)}
	}

	prediction := result.Predictions[0]
	mimeType := strings.ToLower(strings.TrimSpace(prediction.MimeType))
	if !strings.HasPrefix(mimeType, "image/") {
		if mimeType != "" {
			log.Printf("[vertex] %s returned non-image mime type %q, assuming %s", model, prediction.MimeType, DefaultMimeType)
		}
		mimeType = DefaultMimeType
	}
	return &GeneratedImage{Base64: prediction.BytesBase64Encoded, MimeType: mimeType}, nil
}

// token resolves the token source on first use. A failed resolution is
// retried on the next call.
func (c *Client) token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	if c.tokens == nil {
		ts, err := NewTokenSource(ctx, c.opts.CredentialsJSON, c.opts.CredentialsFile)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		c.tokens = ts
	}
	ts := c.tokens
	c.mu.Unlock()

	token, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("credentials returned an empty access token")
	}
	return token, nil
}

// NewTokenSource builds a cloud-platform token source from an inline
// service-account key, a key file, or application default credentials,
// in that order.
func NewTokenSource(ctx context.Context, credentialsJSON, credentialsFile string) (oauth2.TokenSource, error) {
	// Token refreshes must outlive the request that triggered them.
	ctx = context.WithoutCancel(ctx)

	data := []byte(credentialsJSON)
	if len(data) == 0 && credentialsFile != "" {
		var err error
		data, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	}

	if len(data) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, data, CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials: %w", err)
		}
		return creds.TokenSource, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to find default credentials: %w", err)
	}
	return creds.TokenSource, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
