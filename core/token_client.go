package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTokenRequestTimeout = 30 * time.Second
	maxTokenResponseBodyBytes  = 1 << 20 // 1 MiB
)

type tokenEndpointPayload struct {
	AccessToken      string
	TokenType        string
	RefreshToken     string
	Scope            string
	ExpiresIn        int64
	ErrorCode        string
	ErrorDescription string
}

// tokenClient posts form-encoded grants to an OAuth token endpoint and
// decodes JSON or form responses.
type tokenClient struct {
	httpClient     HTTPDoer
	requestTimeout time.Duration
	now            func() time.Time
}

func newTokenClient(httpClient HTTPDoer, requestTimeout time.Duration, now func() time.Time) *tokenClient {
	if requestTimeout <= 0 {
		requestTimeout = defaultTokenRequestTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &tokenClient{
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
		now:            now,
	}
}

// Exchange redeems an authorization code for tokens.
func (c *tokenClient) Exchange(ctx context.Context, material SecretMaterial, code string) (tokenEndpointPayload, error) {
	if c == nil {
		return tokenEndpointPayload{}, fmt.Errorf("core: token client is nil")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return tokenEndpointPayload{}, fmt.Errorf("core: missing authorization code")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	if redirectURI := strings.TrimSpace(material.RedirectURI); redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}

	payload, err := c.fetchToken(ctx, material, form)
	if err != nil {
		return tokenEndpointPayload{}, fmt.Errorf("core: token exchange failed: %w", err)
	}
	return payload, nil
}

// Refresh redeems a refresh token for a new access token.
func (c *tokenClient) Refresh(ctx context.Context, material SecretMaterial) (tokenEndpointPayload, error) {
	if c == nil {
		return tokenEndpointPayload{}, fmt.Errorf("core: token client is nil")
	}
	refreshToken := strings.TrimSpace(material.RefreshToken)
	if refreshToken == "" {
		return tokenEndpointPayload{}, fmt.Errorf("core: refresh token is required")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	payload, err := c.fetchToken(ctx, material, form)
	if err != nil {
		return tokenEndpointPayload{}, fmt.Errorf("core: token refresh failed: %w", err)
	}
	return payload, nil
}

func (c *tokenClient) fetchToken(ctx context.Context, material SecretMaterial, form url.Values) (tokenEndpointPayload, error) {
	if c.httpClient == nil {
		return tokenEndpointPayload{}, fmt.Errorf("http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tokenURL := strings.TrimSpace(material.TokenURL)
	if tokenURL == "" {
		return tokenEndpointPayload{}, fmt.Errorf("token url is required")
	}

	values := url.Values{}
	for key, items := range form {
		if strings.TrimSpace(key) == "" {
			continue
		}
		for _, item := range items {
			values.Add(key, strings.TrimSpace(item))
		}
	}
	values.Set("client_id", strings.TrimSpace(material.ClientID))
	if secret := strings.TrimSpace(material.ClientSecret); secret != "" {
		values.Set("client_secret", secret)
	}

	requestCtx := ctx
	cancel := func() {}
	if c.requestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(
		requestCtx,
		http.MethodPost,
		tokenURL,
		strings.NewReader(values.Encode()),
	)
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return tokenEndpointPayload{}, fmt.Errorf("token request failed: %w", err)
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxTokenResponseBodyBytes+1))
	if readErr != nil {
		return tokenEndpointPayload{}, fmt.Errorf("read token response: %w", readErr)
	}
	if int64(len(body)) > maxTokenResponseBodyBytes {
		return tokenEndpointPayload{}, fmt.Errorf("token response exceeds %d bytes", maxTokenResponseBodyBytes)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		// Error pages are not guaranteed to be parseable; the status code must
		// survive even when the body is junk.
		description := rawBodySummary(body)
		if payload, parseErr := parseTokenPayload(body, response.Header.Get("Content-Type")); parseErr == nil {
			description = describeTokenError(payload)
		}
		return tokenEndpointPayload{}, fmt.Errorf(
			"token endpoint error (%d): %s",
			response.StatusCode,
			description,
		)
	}

	payload, parseErr := parseTokenPayload(body, response.Header.Get("Content-Type"))
	if parseErr != nil {
		return tokenEndpointPayload{}, fmt.Errorf("decode token response: %w", parseErr)
	}
	if payload.ErrorCode != "" {
		return tokenEndpointPayload{}, fmt.Errorf("token endpoint error: %s", describeTokenError(payload))
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return tokenEndpointPayload{}, fmt.Errorf("token endpoint response missing access token")
	}
	return payload, nil
}

func rawBodySummary(body []byte) string {
	summary := strings.Join(strings.Fields(string(body)), " ")
	if summary == "" {
		return "unknown error"
	}
	if len(summary) > 200 {
		summary = summary[:200]
	}
	return summary
}

func describeTokenError(payload tokenEndpointPayload) string {
	if strings.TrimSpace(payload.ErrorDescription) != "" {
		return strings.TrimSpace(payload.ErrorDescription)
	}
	if strings.TrimSpace(payload.ErrorCode) != "" {
		return strings.TrimSpace(payload.ErrorCode)
	}
	return "unknown error"
}

func parseTokenPayload(body []byte, contentType string) (tokenEndpointPayload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if strings.Contains(contentType, "json") {
		return parseTokenPayloadJSON(body)
	}
	if strings.Contains(contentType, "x-www-form-urlencoded") || strings.Contains(contentType, "text/plain") {
		return parseTokenPayloadForm(body)
	}
	if payload, err := parseTokenPayloadJSON(body); err == nil {
		return payload, nil
	}
	return parseTokenPayloadForm(body)
}

func parseTokenPayloadJSON(body []byte) (tokenEndpointPayload, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return tokenEndpointPayload{}, fmt.Errorf("empty payload")
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return tokenEndpointPayload{}, err
	}
	return tokenEndpointPayload{
		AccessToken:      readAnyString(decoded["access_token"]),
		TokenType:        readAnyString(decoded["token_type"]),
		RefreshToken:     readAnyString(decoded["refresh_token"]),
		Scope:            readAnyString(decoded["scope"]),
		ExpiresIn:        readAnyInt64(decoded["expires_in"]),
		ErrorCode:        readAnyString(decoded["error"]),
		ErrorDescription: readAnyString(decoded["error_description"]),
	}, nil
}

func parseTokenPayloadForm(body []byte) (tokenEndpointPayload, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return tokenEndpointPayload{}, fmt.Errorf("empty payload")
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	expiresIn, _ := strconv.ParseInt(strings.TrimSpace(values.Get("expires_in")), 10, 64)
	return tokenEndpointPayload{
		AccessToken:      strings.TrimSpace(values.Get("access_token")),
		TokenType:        strings.TrimSpace(values.Get("token_type")),
		RefreshToken:     strings.TrimSpace(values.Get("refresh_token")),
		Scope:            strings.TrimSpace(values.Get("scope")),
		ExpiresIn:        expiresIn,
		ErrorCode:        strings.TrimSpace(values.Get("error")),
		ErrorDescription: strings.TrimSpace(values.Get("error_description")),
	}, nil
}

func resolveExpiresAt(now time.Time, expiresIn int64) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	expiresAt := now.UTC().Add(time.Duration(expiresIn) * time.Second)
	return &expiresAt
}

func normalizeTokenType(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "bearer"
	}
	return normalized
}

func readAnyString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case fmt.Stringer:
		return strings.TrimSpace(typed.String())
	default:
		if value == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func readAnyInt64(value any) int64 {
	switch typed := value.(type) {
	case int:
		return int64(typed)
	case int64:
		return typed
	case float64:
		return int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err == nil {
			return parsed
		}
		floatParsed, floatErr := typed.Float64()
		if floatErr == nil {
			return int64(floatParsed)
		}
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err == nil {
			return parsed
		}
	}
	return 0
}
