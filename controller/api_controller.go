package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wndudzz6/github-profile-api/cache"
	"github.com/wndudzz6/github-profile-api/config"
	"github.com/wndudzz6/github-profile-api/model"
	"github.com/wndudzz6/github-profile-api/service"
)

type APIController interface {
	Index(ctx *gin.Context)
	GetProfile(ctx *gin.Context)
}

type apiController struct {
	profileService service.ProfileService
	profileCache   cache.ProfileCache
	config         config.Config
}

func NewAPIController(cfg config.Config, profileService service.ProfileService, profileCache cache.ProfileCache) APIController {
	return apiController{
		profileService: profileService,
		profileCache:   profileCache,
		config:         cfg,
	}
}

func (s apiController) Index(c *gin.Context) {
	c.String(http.StatusOK, "GitHub Profile API Server Running")
}

func (s apiController) GetProfile(c *gin.Context) {
	var query model.ProfileQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, http.StatusBadRequest, "unable to parse query parameters", model.MethodAPI)
		return
	}

	username := query.NormalizedUsername()
	method := query.NormalizedMethod()

	if username == "" {
		respondError(c, http.StatusBadRequest, "username query param required", method)
		return
	}

	// the scrape path is a placeholder, answered without caching
	if method == model.MethodScrape {
		respondError(c, http.StatusOK, service.ErrScrapeNotImplemented.Error(), method)
		return
	}

	ctx := c.Request.Context()

	if view, found := s.profileCache.Get(ctx, method, username); found {
		fromCache := "from-cache"

		c.JSON(http.StatusOK, model.ProfileResponse{
			Data:      view,
			Details:   map[string]interface{}{},
			Method:    method,
			RateLimit: &fromCache,
		})
		return
	}

	view, rateMessage, details, err := s.profileService.FetchProfileViaAPI(ctx, username)

	if err != nil {
		respondError(c, statusForError(err), model.NewAPIError(err).Message, method)
		return
	}

	s.profileCache.Set(ctx, method, username, view)

	var ratePointer *string
	if rateMessage != "" {
		ratePointer = &rateMessage
	}

	if details == nil {
		details = map[string]interface{}{}
	}

	c.JSON(http.StatusOK, model.ProfileResponse{
		Data:      view,
		Details:   details,
		Method:    method,
		RateLimit: ratePointer,
	})
}

func respondError(c *gin.Context, status int, message string, method string) {
	c.JSON(status, model.ProfileResponse{
		Error:   &message,
		Details: map[string]interface{}{},
		Method:  method,
	})
}

// statusForError maps the error taxonomy onto the inbound surface: caller
// mistakes are 400, a missing user is 404, every other upstream problem is a
// bad gateway
func statusForError(err error) int {
	var invalidErr *model.InvalidRequestError
	if errors.As(err, &invalidErr) {
		return http.StatusBadRequest
	}

	var upstreamErr *model.UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.StatusCode == http.StatusNotFound {
		return http.StatusNotFound
	}

	return http.StatusBadGateway
}
