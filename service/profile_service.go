package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/wndudzz6/github-profile-api/client"
	"github.com/wndudzz6/github-profile-api/config"
	"github.com/wndudzz6/github-profile-api/model"
)

// ErrScrapeNotImplemented is the answer of the scrape method, which exists as
// a placeholder only
var ErrScrapeNotImplemented = errors.New("profile scraping is not implemented yet")

type ProfileService interface {
	FetchProfileViaAPI(ctx context.Context, username string) (*model.ProfileView, string, map[string]interface{}, error)
	FetchProfileViaScrape(ctx context.Context, username string) (*model.ProfileView, string, map[string]interface{}, error)
}

type profileService struct {
	config          config.Config
	githubClient    client.GithubClient
	languageService LanguageService
}

func NewProfileService(cfg config.Config, githubClient client.GithubClient, languageService LanguageService) ProfileService {
	return profileService{
		config:          cfg,
		githubClient:    githubClient,
		languageService: languageService,
	}
}

// FetchProfileViaAPI loads the user's core profile, attaches the language
// aggregate and extracts the rate limit telemetry. An aggregation failure is
// reported on the view without failing the profile fetch.
func (s profileService) FetchProfileViaAPI(ctx context.Context, username string) (*model.ProfileView, string, map[string]interface{}, error) {
	username = strings.TrimSpace(username)

	if username == "" {
		return nil, "", nil, &model.InvalidRequestError{Reason: "username query param required"}
	}

	userURL := fmt.Sprintf("%s/users/%s", s.config.Github.BaseURL, username)
	res, err := s.githubClient.Get(ctx, userURL, nil, "")

	if err != nil {
		log.WithError(err).WithField("username", username).Error("unable to fetch profile from github")
		return nil, "", nil, err
	}

	var user model.GithubUser
	if err := json.Unmarshal(res.Body, &user); err != nil {
		log.WithError(err).Error("unable to decode the github profile payload")
		return nil, "", nil, &model.UpstreamError{StatusCode: res.StatusCode, Message: "unexpected profile payload"}
	}

	// the raw upstream record travels in the envelope's details field
	var details map[string]interface{}
	_ = json.Unmarshal(res.Body, &details)

	view := model.NewProfileView(user)

	stats, err := s.languageService.GetLanguageStats(ctx, username)

	if err != nil {
		log.WithError(err).WithField("username", username).Warning("language aggregation failed, returning the profile without stats")
		view.LanguageStatsError = err.Error()
	} else {
		view.LanguageStats = stats
	}

	return view, rateLimitMessage(res.Header), details, nil
}

// FetchProfileViaScrape is a deliberate stub: no request leaves the process
func (s profileService) FetchProfileViaScrape(_ context.Context, username string) (*model.ProfileView, string, map[string]interface{}, error) {
	if strings.TrimSpace(username) == "" {
		return nil, "", nil, &model.InvalidRequestError{Reason: "username query param required"}
	}

	return nil, "", nil, ErrScrapeNotImplemented
}

// rateLimitMessage renders the quota headers into the human readable form the
// envelope carries, empty when github did not send them
func rateLimitMessage(header http.Header) string {
	limit := header.Get("X-RateLimit-Limit")
	remaining := header.Get("X-RateLimit-Remaining")

	if limit == "" || remaining == "" {
		return ""
	}

	return fmt.Sprintf("Rate %s/%s", remaining, limit)
}
