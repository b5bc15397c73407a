package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wndudzz6/github-profile-api/model"
)

// ProfileCache is the endpoint level cache for assembled profile views.
// Keys are method qualified so api and scrape results can never contaminate
// each other.
type ProfileCache interface {
	Get(ctx context.Context, method string, username string) (*model.ProfileView, bool)
	Set(ctx context.Context, method string, username string, view *model.ProfileView)
}

type profileCache struct {
	store Store
	ttl   time.Duration
}

func NewProfileCache(store Store, ttl time.Duration) ProfileCache {
	return profileCache{
		store: store,
		ttl:   ttl,
	}
}

func profileKey(method string, username string) string {
	return "profile::" + method + "::" + strings.ToLower(username)
}

func (c profileCache) Get(ctx context.Context, method string, username string) (*model.ProfileView, bool) {
	raw, found, err := c.store.Get(ctx, profileKey(method, username))

	if err != nil {
		log.WithError(err).Debug("profile cache lookup failed, treating as miss")
		return nil, false
	}

	if !found {
		return nil, false
	}

	var view model.ProfileView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		log.Debug("corrupt profile cache entry, treating as miss")
		return nil, false
	}

	return &view, true
}

func (c profileCache) Set(ctx context.Context, method string, username string, view *model.ProfileView) {
	if view == nil {
		return
	}

	raw, err := json.Marshal(view)

	if err != nil {
		log.WithError(err).Warning("unable to serialize profile cache entry")
		return
	}

	if err := c.store.SetEx(ctx, profileKey(method, username), c.ttl, string(raw)); err != nil {
		log.WithError(err).Warning("unable to store profile cache entry")
	}
}
