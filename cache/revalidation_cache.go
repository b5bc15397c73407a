package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"

	log "github.com/sirupsen/logrus"
)

// RevalidationCache stores, per resource identity, the last validator token
// github handed out together with the body it validated. Get never touches
// the network and treats anything undecodable as a miss. Put is a pure
// overwrite.
type RevalidationCache interface {
	Get(ctx context.Context, rawURL string, params url.Values) (string, json.RawMessage, bool)
	Put(ctx context.Context, rawURL string, params url.Values, validator string, body json.RawMessage)
}

type revalidationCache struct {
	store Store
}

type revalidationEntry struct {
	Validator string          `json:"validator"`
	Body      json.RawMessage `json:"body"`
}

func NewRevalidationCache(store Store) RevalidationCache {
	return revalidationCache{store: store}
}

// revalidationKey hashes the request identity. url.Values.Encode sorts by
// parameter key, so semantically identical requests collide regardless of
// insertion order.
func revalidationKey(rawURL string, params url.Values) string {
	sum := sha256.Sum256([]byte(rawURL + "?" + params.Encode()))
	return "revalidation::" + hex.EncodeToString(sum[:])
}

func (c revalidationCache) Get(ctx context.Context, rawURL string, params url.Values) (string, json.RawMessage, bool) {
	key := revalidationKey(rawURL, params)
	raw, found, err := c.store.Get(ctx, key)

	if err != nil {
		log.WithError(err).Debug("revalidation cache lookup failed, treating as miss")
		return "", nil, false
	}

	if !found {
		return "", nil, false
	}

	var entry revalidationEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		log.WithField("key", key).Debug("corrupt revalidation cache entry, treating as miss")
		return "", nil, false
	}

	return entry.Validator, entry.Body, true
}

func (c revalidationCache) Put(ctx context.Context, rawURL string, params url.Values, validator string, body json.RawMessage) {
	// refuse anything that is not a structured record, a malformed payload
	// must not poison the cache
	var structured map[string]interface{}
	if err := json.Unmarshal(body, &structured); err != nil {
		log.WithField("url", rawURL).Warning("refusing to cache a body that is not a json object")
		return
	}

	raw, err := json.Marshal(revalidationEntry{Validator: validator, Body: body})

	if err != nil {
		log.WithError(err).Warning("unable to serialize revalidation cache entry")
		return
	}

	// stored without expiry, capacity is the backing store's concern
	if err := c.store.SetEx(ctx, revalidationKey(rawURL, params), 0, string(raw)); err != nil {
		log.WithError(err).Warning("unable to store revalidation cache entry")
	}
}
