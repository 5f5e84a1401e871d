package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/orq-ai/evaluatorq/pkg/errors"
)

const resultsPath = "/v1/evaluations/results"

// Uploader posts a serialized result payload to the remote platform.
// evaluatorq.Run builds a new Uploader on each call that uploads; it is
// not shared across runs and is never held in a package-level variable.
type Uploader struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// New builds an Uploader. timeout below or equal to zero defaults to 30s,
// matching the teacher's provider-client construction style.
func New(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Uploader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	warnIfExpired(apiKey, logger)

	return &Uploader{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Upload POSTs the payload to the results endpoint. Transport failures are
// returned as a non-fatal *pkg/errors.AppError; the caller (evaluatorq.Run)
// logs it and still returns the result tree (spec.md §4.8).
func (u *Uploader) Upload(ctx context.Context, payload *Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.WrapInternalError(err, "failed to marshal upload payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+resultsPath, bytes.NewReader(body))
	if err != nil {
		return apperrors.WrapInternalError(err, "failed to build upload request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+u.apiKey)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return apperrors.NewServiceUnavailableError(fmt.Sprintf("uploader: request failed: %v", err))
	}
	defer resp.Body.Close()

	return classifyResponse(resp.StatusCode)
}

func classifyResponse(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return apperrors.NewUnauthorizedError("uploader: API key rejected")
	case status == http.StatusTooManyRequests:
		return apperrors.NewRateLimitError("uploader: rate limited")
	case status >= 500:
		return apperrors.NewServiceUnavailableError(fmt.Sprintf("uploader: server error (status %d)", status))
	default:
		return apperrors.NewBadRequestError(fmt.Sprintf("uploader: unexpected response status %d", status), "")
	}
}

// warnIfExpired opportunistically decodes apiKey as a JWT, without
// verifying its signature (the server is the verifier), purely to log a
// warning before an upload attempt fails noisily on an expired key. Keys
// that are not JWTs are treated as opaque bearer tokens and pass through
// silently.
func warnIfExpired(apiKey string, logger *slog.Logger) {
	if apiKey == "" {
		return
	}
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(apiKey, &claims)
	if err != nil {
		return
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		logger.Warn("uploader: API key appears expired", "expiresAt", claims.ExpiresAt.Time)
	}
}
