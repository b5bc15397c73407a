package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v66/github"
	githubMock "github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wndudzz6/github-profile-api/cache"
	"github.com/wndudzz6/github-profile-api/client"
	"github.com/wndudzz6/github-profile-api/config"
	"github.com/wndudzz6/github-profile-api/model"
)

func newMockedProfileService(httpClient *http.Client) ProfileService {
	cfg := *config.GetDefault()
	cfg.Github.FetchDelayMs = 0

	githubClient := client.NewGithubClient(cfg.Github, httpClient)
	languageService := NewLanguageService(cfg, githubClient, cache.NewRevalidationCache(cache.NewMemoryStore()))

	return NewProfileService(cfg, githubClient, languageService)
}

// TestFetchProfileViaAPI checks the field mapping, the timestamp display
// format and the attached language aggregate
func TestFetchProfileViaAPI(t *testing.T) {
	mockedHTTPClient := githubMock.NewMockedHTTPClient(
		githubMock.WithRequestMatch(
			githubMock.GetUsersByUsername,
			github.User{
				Login:       github.String("alice"),
				Name:        github.String("Alice Doe"),
				AvatarURL:   github.String("https://avatars.githubusercontent.com/u/1"),
				HTMLURL:     github.String("https://github.com/alice"),
				Location:    github.String("Seoul"),
				PublicRepos: github.Int(12),
				Followers:   github.Int(3),
				Following:   github.Int(7),
				CreatedAt:   &github.Timestamp{Time: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)},
			},
		),
		githubMock.WithRequestMatch(
			githubMock.GetUsersReposByUsername,
			[]github.Repository{
				{FullName: github.String("alice/repo1")},
			},
			[]github.Repository{},
		),
		githubMock.WithRequestMatch(
			githubMock.GetReposLanguagesByOwnerByRepo,
			map[string]int{"Go": 100},
		),
	)

	profileService := newMockedProfileService(mockedHTTPClient)
	view, rateMessage, details, err := profileService.FetchProfileViaAPI(context.Background(), "alice")

	require.NoError(t, err)
	require.NotNil(t, view)

	assert.Equal(t, "alice", view.Login)
	require.NotNil(t, view.Name)
	assert.Equal(t, "Alice Doe", *view.Name)
	assert.Equal(t, 12, view.PublicRepos)
	assert.Equal(t, "2020-01-02T03:04:05Z", view.CreatedAt)
	assert.Equal(t, "2020-01-02 12:04:05 KST", view.CreatedAtFmt)

	require.NotNil(t, view.LanguageStats)
	assert.Equal(t, uint64(100), view.LanguageStats.TotalBytes)
	assert.Empty(t, view.LanguageStatsError)

	// the mock does not emit quota headers
	assert.Empty(t, rateMessage)
	assert.Equal(t, "alice", details["login"])
}

func TestFetchProfileViaAPIEmptyUsername(t *testing.T) {
	profileService := newMockedProfileService(githubMock.NewMockedHTTPClient())

	view, _, _, err := profileService.FetchProfileViaAPI(context.Background(), "   ")

	assert.Nil(t, view)

	var invalidErr *model.InvalidRequestError
	assert.ErrorAs(t, err, &invalidErr)
}

// TestFetchProfileViaAPIRateLimited verifies the 403 + zeroed remaining
// header classification surfaces the reset time
func TestFetchProfileViaAPIRateLimited(t *testing.T) {
	mockedHTTPClient := githubMock.NewMockedHTTPClient(
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", "1700000000")
				githubMock.WriteError(w, http.StatusForbidden, "API rate limit exceeded")
			}),
		),
	)

	profileService := newMockedProfileService(mockedHTTPClient)
	view, _, _, err := profileService.FetchProfileViaAPI(context.Background(), "alice")

	assert.Nil(t, view)

	var rateErr *model.RateLimitedError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, int64(1700000000), rateErr.ResetEpoch)
}

func TestFetchProfileViaAPIUserNotFound(t *testing.T) {
	mockedHTTPClient := githubMock.NewMockedHTTPClient(
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				githubMock.WriteError(w, http.StatusNotFound, "Not Found")
			}),
		),
	)

	profileService := newMockedProfileService(mockedHTTPClient)
	view, _, _, err := profileService.FetchProfileViaAPI(context.Background(), "ghost")

	assert.Nil(t, view)

	var upstreamErr *model.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusNotFound, upstreamErr.StatusCode)
}

// TestFetchProfileViaAPIAggregationFailure keeps the profile and reports the
// aggregation error on the view instead of failing the whole fetch
func TestFetchProfileViaAPIAggregationFailure(t *testing.T) {
	mockedHTTPClient := githubMock.NewMockedHTTPClient(
		githubMock.WithRequestMatch(
			githubMock.GetUsersByUsername,
			github.User{
				Login:     github.String("alice"),
				CreatedAt: &github.Timestamp{Time: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)},
			},
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersReposByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				githubMock.WriteError(w, http.StatusInternalServerError, "boom")
			}),
		),
	)

	profileService := newMockedProfileService(mockedHTTPClient)
	view, _, _, err := profileService.FetchProfileViaAPI(context.Background(), "alice")

	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Nil(t, view.LanguageStats)
	assert.NotEmpty(t, view.LanguageStatsError)
}

func TestFetchProfileViaScrapeIsStub(t *testing.T) {
	profileService := newMockedProfileService(githubMock.NewMockedHTTPClient())

	view, _, _, err := profileService.FetchProfileViaScrape(context.Background(), "alice")

	assert.Nil(t, view)
	assert.ErrorIs(t, err, ErrScrapeNotImplemented)
}
