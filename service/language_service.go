package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/remeh/sizedwaitgroup"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/wndudzz6/github-profile-api/cache"
	"github.com/wndudzz6/github-profile-api/client"
	"github.com/wndudzz6/github-profile-api/config"
	"github.com/wndudzz6/github-profile-api/model"
)

type LanguageService interface {
	GetLanguageStats(ctx context.Context, username string) (*model.LanguageStats, error)
}

type languageService struct {
	config       config.Config
	githubClient client.GithubClient
	revalidation cache.RevalidationCache
	limiter      *rate.Limiter

	mutex    sync.Mutex
	memoized map[string]*model.LanguageStats
}

// NewLanguageService builds the aggregation core. The limiter spaces the per
// repository language fetches as a courtesy towards the github quota, it is
// not a correctness mechanism (a zero delay disables it, which tests rely on).
func NewLanguageService(cfg config.Config, githubClient client.GithubClient, revalidation cache.RevalidationCache) LanguageService {
	limiter := rate.NewLimiter(rate.Inf, 1)

	if cfg.Github.FetchDelayMs > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(cfg.Github.FetchDelayMs)*time.Millisecond), 1)
	}

	return &languageService{
		config:       cfg,
		githubClient: githubClient,
		revalidation: revalidation,
		limiter:      limiter,
		memoized:     make(map[string]*model.LanguageStats),
	}
}

// GetLanguageStats returns the merged language usage summary for one user.
// Results are memoized by username for the process lifetime: repeated calls
// return the same aggregate without any upstream traffic.
func (s *languageService) GetLanguageStats(ctx context.Context, username string) (*model.LanguageStats, error) {
	if username == "" {
		note := "empty username"

		return &model.LanguageStats{
			ByLang:      []model.LanguageEntry{},
			GeneratedAt: model.FormatKST(time.Now()),
			Note:        &note,
		}, nil
	}

	s.mutex.Lock()
	if stats, found := s.memoized[username]; found {
		s.mutex.Unlock()

		log.WithField("username", username).Debug("language stats served from memoization")
		return stats, nil
	}
	s.mutex.Unlock()

	// computed outside the lock: a concurrent duplicate aggregation is a
	// benign redundant fetch, the store below is a pure overwrite
	stats, err := s.aggregate(ctx, username)

	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	s.memoized[username] = stats
	s.mutex.Unlock()

	return stats, nil
}

func (s *languageService) aggregate(ctx context.Context, username string) (*model.LanguageStats, error) {
	reposURL := fmt.Sprintf("%s/users/%s/repos", s.config.Github.BaseURL, username)

	log.WithFields(log.Fields{
		"username": username,
		"scanCap":  s.config.Github.MaxLangRepos,
	}).Info("aggregating language stats")

	accumulator := newLanguageAccumulator()
	repoCount := 0
	processed := 0

	for page := 1; page <= s.config.Github.MaxPages; page++ {
		params := url.Values{}
		params.Set("type", "owner")
		params.Set("sort", "updated")
		params.Set("per_page", strconv.Itoa(s.config.Github.PerPage))
		params.Set("page", strconv.Itoa(page))

		res, err := s.githubClient.Get(ctx, reposURL, params, "")

		if err != nil {
			// nothing aggregated yet on the first page, the caller must know
			if page == 1 {
				log.WithError(err).Error("unable to list repositories")
				return nil, err
			}

			log.WithError(err).WithField("page", page).Warning("repository listing failed, keeping the partial aggregate")
			break
		}

		var refs []model.RepositoryRef
		if err := json.Unmarshal(res.Body, &refs); err != nil {
			if page == 1 {
				return nil, &model.UpstreamError{StatusCode: res.StatusCode, Message: "unexpected repository listing payload"}
			}

			log.WithField("page", page).Warning("unreadable repository listing page, keeping the partial aggregate")
			break
		}

		if len(refs) == 0 {
			break
		}

		// the scan cap stops language fetches, never the total: every listed
		// repository still counts so the summary reports how many really exist
		selected := make([]model.RepositoryRef, 0, len(refs))

		for _, ref := range refs {
			repoCount++

			if processed+len(selected) >= s.config.Github.MaxLangRepos {
				continue
			}

			if ref.FullName == "" {
				continue
			}

			selected = append(selected, ref)
		}

		for _, langMap := range s.fetchLanguagesForPage(ctx, selected) {
			accumulator.merge(langMap)
		}

		processed += len(selected)
	}

	totalBytes, byLang := accumulator.finalize()

	var note *string
	if processed < repoCount {
		message := fmt.Sprintf("only %d of %d repositories scanned", processed, repoCount)
		note = &message
	}

	return &model.LanguageStats{
		TotalBytes:   totalBytes,
		ByLang:       byLang,
		RepoCount:    repoCount,
		ScannedRepos: processed,
		GeneratedAt:  model.FormatKST(time.Now()),
		Note:         note,
	}, nil
}

// fetchLanguagesForPage loads the byte-maps of the selected repositories with
// a bounded number of parallel requests. Results come back in an indexed
// slice so the caller merges them in selection order, which keeps the
// tie-break order of the final ranking deterministic.
func (s *languageService) fetchLanguagesForPage(ctx context.Context, refs []model.RepositoryRef) []model.LanguageByteMap {
	results := make([]model.LanguageByteMap, len(refs))
	swg := sizedwaitgroup.New(s.config.Github.MaxParallelFetches)

	for i, ref := range refs {
		swg.Add()

		go func(i int, ref model.RepositoryRef) {
			defer swg.Done()
			results[i] = s.fetchRepositoryLanguages(ctx, ref)
		}(i, ref)
	}

	swg.Wait()
	return results
}

// fetchRepositoryLanguages loads one repository's byte-map through the
// revalidation cache. Any failure degrades to an empty contribution, a single
// broken repository never aborts the whole aggregation.
func (s *languageService) fetchRepositoryLanguages(ctx context.Context, ref model.RepositoryRef) model.LanguageByteMap {
	langURL := fmt.Sprintf("%s/repos/%s/languages", s.config.Github.BaseURL, ref.FullName)
	validator, cachedBody, cached := s.revalidation.Get(ctx, langURL, nil)

	if err := s.limiter.Wait(ctx); err != nil {
		return model.LanguageByteMap{}
	}

	res, err := s.githubClient.Get(ctx, langURL, nil, validator)

	if err != nil {
		log.WithError(err).WithField("repository", ref.FullName).Debug("language fetch failed, repository contributes nothing")
		return model.LanguageByteMap{}
	}

	if res.IsNotModified() && cached {
		var langMap model.LanguageByteMap

		if err := json.Unmarshal(cachedBody, &langMap); err != nil {
			log.WithField("repository", ref.FullName).Debug("cached byte-map unreadable, repository contributes nothing")
			return model.LanguageByteMap{}
		}

		return langMap
	}

	var langMap model.LanguageByteMap
	if err := json.Unmarshal(res.Body, &langMap); err != nil {
		log.WithField("repository", ref.FullName).Debug("unreadable languages payload, repository contributes nothing")
		return model.LanguageByteMap{}
	}

	if etag := res.ETag(); etag != "" {
		s.revalidation.Put(ctx, langURL, nil, etag, res.Body)
	}

	return langMap
}

// languageAccumulator sums byte counts per language and remembers the order
// in which languages were first seen, the tie-break order of the ranking
type languageAccumulator struct {
	totals map[string]uint64
	order  []string
}

func newLanguageAccumulator() *languageAccumulator {
	return &languageAccumulator{
		totals: make(map[string]uint64),
	}
}

func (a *languageAccumulator) merge(langMap model.LanguageByteMap) {
	// go maps iterate in random order, fix one per byte-map so repeated
	// aggregations of the same data rank ties identically
	languages := make([]string, 0, len(langMap))
	for lang := range langMap {
		languages = append(languages, lang)
	}

	sort.Slice(languages, func(i, j int) bool {
		if langMap[languages[i]] != langMap[languages[j]] {
			return langMap[languages[i]] > langMap[languages[j]]
		}

		return languages[i] < languages[j]
	})

	for _, lang := range languages {
		if _, seen := a.totals[lang]; !seen {
			a.order = append(a.order, lang)
		}

		a.totals[lang] += langMap[lang]
	}
}

func (a *languageAccumulator) finalize() (uint64, []model.LanguageEntry) {
	var totalBytes uint64
	for _, bytes := range a.totals {
		totalBytes += bytes
	}

	entries := make([]model.LanguageEntry, 0, len(a.order))

	for _, lang := range a.order {
		bytes := a.totals[lang]
		pct := 0.0

		if totalBytes > 0 {
			pct = roundToTwoDecimals(float64(bytes) / float64(totalBytes) * 100)
		}

		entries = append(entries, model.LanguageEntry{
			Lang:  lang,
			Bytes: bytes,
			Pct:   pct,
		})
	}

	// stable sort keeps first-seen order between equal byte counts
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Bytes > entries[j].Bytes
	})

	return totalBytes, entries
}

func roundToTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}
