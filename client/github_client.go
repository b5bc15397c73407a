package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/wndudzz6/github-profile-api/config"
	"github.com/wndudzz6/github-profile-api/model"
)

// Response is the raw outcome of a successful exchange with github.
// Status is either 200 or 304, classification of every other outcome happens
// inside Get and surfaces as a typed error.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsNotModified reports whether github answered the conditional request with
// a not-modified signal
func (r *Response) IsNotModified() bool {
	return r.StatusCode == http.StatusNotModified
}

// ETag returns the validator of this response version, empty when absent
func (r *Response) ETag() string {
	return r.Header.Get("ETag")
}

type GithubClient interface {
	Get(ctx context.Context, rawURL string, params url.Values, validator string) (*Response, error)
}

type githubClient struct {
	httpClient *http.Client
	config     config.GithubConfig
}

// NewGithubClient builds the upstream client. When httpClient is nil a real
// one is constructed, authenticated through an oauth2 static token source if
// a token is configured. Tests inject their own client here.
func NewGithubClient(cfg config.GithubConfig, httpClient *http.Client) GithubClient {
	if httpClient == nil {
		if cfg.Token != "" {
			tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
			httpClient = oauth2.NewClient(context.Background(), tokenSource)
		} else {
			log.Warn("no github token configured, calling github unauthenticated with a reduced rate limit")
			httpClient = &http.Client{}
		}

		httpClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return githubClient{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Get executes a single GET against github and classifies the outcome.
// No retries: resilience is the caller's decision, not the transport's.
func (c githubClient) Get(ctx context.Context, rawURL string, params url.Values, validator string) (*Response, error) {
	parsed, err := url.Parse(rawURL)

	if err != nil || !parsed.IsAbs() || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, &model.InvalidRequestError{Reason: "url must be an absolute http(s) url"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)

	if err != nil {
		return nil, &model.InvalidRequestError{Reason: "unable to build request: " + err.Error()}
	}

	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	if validator != "" {
		req.Header.Set("If-None-Match", validator)
	}

	res, err := c.httpClient.Do(req)

	if err != nil {
		return nil, &model.NetworkError{Cause: err}
	}

	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)

	if err != nil {
		return nil, &model.NetworkError{Cause: err}
	}

	// github reports quota exhaustion as a 403 with a zeroed remaining header
	if res.StatusCode == http.StatusForbidden && res.Header.Get("X-RateLimit-Remaining") == "0" {
		resetEpoch, _ := strconv.ParseInt(res.Header.Get("X-RateLimit-Reset"), 10, 64)

		log.WithField("resetEpoch", resetEpoch).Warning("the github rate limit has been reached. use a token or wait until the limit reset")
		return nil, &model.RateLimitedError{ResetEpoch: resetEpoch}
	}

	if res.StatusCode >= 400 {
		return nil, &model.UpstreamError{
			StatusCode: res.StatusCode,
			Message:    extractErrorMessage(body),
		}
	}

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}, nil
}

// extractErrorMessage pulls the message field out of a github error payload
func extractErrorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	return payload.Message
}
