package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"loot-tracker/internal/config"

	"github.com/valyala/fasthttp"
)

var ErrNoAPIKey = errors.New("identity API key not configured")

type IdentityClient struct {
	apiKey  string
	baseURL string
	client  *fasthttp.Client
}

func NewIdentityClient(cfg *config.Config) *IdentityClient {
	return &IdentityClient{
		apiKey:  cfg.FirebaseAPIKey,
		baseURL: strings.TrimRight(cfg.IdentityBaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *IdentityClient) Enabled() bool {
	return c.apiKey != ""
}

func (c *IdentityClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	return doRequest[AuthResponse](ctx, c, "accounts:signInWithPassword", credentialsRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
}

func (c *IdentityClient) SignUp(ctx context.Context, email, password string) (*AuthResponse, error) {
	return doRequest[AuthResponse](ctx, c, "accounts:signUp", credentialsRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
}

// SignInAnonymously creates a fresh anonymous account.
func (c *IdentityClient) SignInAnonymously(ctx context.Context) (*AuthResponse, error) {
	return doRequest[AuthResponse](ctx, c, "accounts:signUp", credentialsRequest{
		ReturnSecureToken: true,
	})
}

func doRequest[T any](ctx context.Context, c *IdentityClient, method string, body any) (*T, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/%s?key=%s", c.baseURL, method, c.apiKey))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		var apiErr errorResponse
		if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, &Error{Status: resp.StatusCode(), Message: apiErr.Error.Message}
		}
		return nil, &Error{Status: resp.StatusCode()}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity API error: %d", e.Status)
	}
	return fmt.Sprintf("identity API error: %d %s", e.Status, e.Message)
}

type credentialsRequest struct {
	Email             string `json:"email,omitempty"`
	Password          string `json:"password,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type AuthResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
