package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wndudzz6/github-profile-api/cache"
	"github.com/wndudzz6/github-profile-api/config"
	"github.com/wndudzz6/github-profile-api/model"
	"github.com/wndudzz6/github-profile-api/service"
)

// stubProfileService lets the controller tests script the service outcome and
// count how often the upstream path is taken
type stubProfileService struct {
	view        *model.ProfileView
	rateMessage string
	details     map[string]interface{}
	err         error
	apiCalls    int
	scrapeCalls int
}

func (s *stubProfileService) FetchProfileViaAPI(_ context.Context, _ string) (*model.ProfileView, string, map[string]interface{}, error) {
	s.apiCalls++
	return s.view, s.rateMessage, s.details, s.err
}

func (s *stubProfileService) FetchProfileViaScrape(_ context.Context, _ string) (*model.ProfileView, string, map[string]interface{}, error) {
	s.scrapeCalls++
	return nil, "", nil, service.ErrScrapeNotImplemented
}

func newTestRouter(profileService service.ProfileService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := *config.GetDefault()
	profileCache := cache.NewProfileCache(cache.NewMemoryStore(), time.Minute)
	apiController := NewAPIController(cfg, profileService, profileCache)

	router := gin.New()
	router.GET("/", apiController.Index)
	router.GET("/api/profile", apiController.GetProfile)
	return router
}

func performRequest(router *gin.Engine, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) model.ProfileResponse {
	t.Helper()

	var envelope model.ProfileResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}

func TestGetProfileMissingUsername(t *testing.T) {
	stub := &stubProfileService{}
	router := newTestRouter(stub)

	recorder := performRequest(router, "/api/profile")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	envelope := decodeEnvelope(t, recorder)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "username query param required", *envelope.Error)
	assert.Equal(t, 0, stub.apiCalls)
}

func TestGetProfileSuccess(t *testing.T) {
	stub := &stubProfileService{
		view:        &model.ProfileView{Login: "alice", PublicRepos: 12},
		rateMessage: "Rate 59/60",
		details:     map[string]interface{}{"login": "alice"},
	}
	router := newTestRouter(stub)

	recorder := performRequest(router, "/api/profile?username=alice")

	assert.Equal(t, http.StatusOK, recorder.Code)

	envelope := decodeEnvelope(t, recorder)
	require.NotNil(t, envelope.Data)
	assert.Equal(t, "alice", envelope.Data.Login)
	assert.Nil(t, envelope.Error)
	assert.Equal(t, model.MethodAPI, envelope.Method)
	require.NotNil(t, envelope.RateLimit)
	assert.Equal(t, "Rate 59/60", *envelope.RateLimit)
	assert.Equal(t, "alice", envelope.Details["login"])
}

// the second identical request must be answered from the profile cache
// without another service call
func TestGetProfileSecondCallServedFromCache(t *testing.T) {
	stub := &stubProfileService{
		view: &model.ProfileView{Login: "alice"},
	}
	router := newTestRouter(stub)

	first := performRequest(router, "/api/profile?username=alice")
	require.Equal(t, http.StatusOK, first.Code)

	second := performRequest(router, "/api/profile?username=alice")
	require.Equal(t, http.StatusOK, second.Code)

	envelope := decodeEnvelope(t, second)
	require.NotNil(t, envelope.RateLimit)
	assert.Equal(t, "from-cache", *envelope.RateLimit)
	require.NotNil(t, envelope.Data)
	assert.Equal(t, "alice", envelope.Data.Login)
	assert.Equal(t, 1, stub.apiCalls)
}

func TestGetProfileScrapeIsStub(t *testing.T) {
	stub := &stubProfileService{}
	router := newTestRouter(stub)

	recorder := performRequest(router, "/api/profile?username=alice&method=scrape")

	assert.Equal(t, http.StatusOK, recorder.Code)

	envelope := decodeEnvelope(t, recorder)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, service.ErrScrapeNotImplemented.Error(), *envelope.Error)
	assert.Equal(t, model.MethodScrape, envelope.Method)
	assert.Equal(t, 0, stub.apiCalls)
}

func TestGetProfileUserNotFound(t *testing.T) {
	stub := &stubProfileService{
		err: &model.UpstreamError{StatusCode: http.StatusNotFound, Message: "Not Found"},
	}
	router := newTestRouter(stub)

	recorder := performRequest(router, "/api/profile?username=ghost")

	assert.Equal(t, http.StatusNotFound, recorder.Code)

	envelope := decodeEnvelope(t, recorder)
	assert.Nil(t, envelope.Data)
	require.NotNil(t, envelope.Error)
}

func TestGetProfileRateLimited(t *testing.T) {
	stub := &stubProfileService{
		err: &model.RateLimitedError{ResetEpoch: 1700000000},
	}
	router := newTestRouter(stub)

	recorder := performRequest(router, "/api/profile?username=alice")

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
}

func TestGetProfileNetworkFailure(t *testing.T) {
	stub := &stubProfileService{
		err: &model.NetworkError{Cause: context.DeadlineExceeded},
	}
	router := newTestRouter(stub)

	recorder := performRequest(router, "/api/profile?username=alice")

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
}

func TestIndex(t *testing.T) {
	router := newTestRouter(&stubProfileService{})

	recorder := performRequest(router, "/")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "GitHub Profile API")
}
