// Package history pages through past submissions for a problem, decoupled
// from any in-flight live submission.
package history

import (
	"context"
	"strings"
	"time"

	"judgeview/internal/api"
	appErr "judgeview/pkg/errors"
	"judgeview/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultCacheSize = 64
	defaultCacheTTL  = 30 * time.Second
)

// Lister fetches one history page from the platform. Satisfied by
// *api.Client.
type Lister interface {
	ListSubmissionsForProblem(ctx context.Context, problemID string, page, limit int) (*api.SubmissionPage, error)
}

// Pager serves history pages with a short-lived LRU cache. Page requests are
// idempotent and cacheable by (problemId, page, limit); Invalidate drops a
// problem's pages the moment a submission for it reaches a terminal state
// locally.
type Pager struct {
	lister Lister
	cache  *pageCache
}

// NewPager creates a pager with the default cache policy.
func NewPager(lister Lister) *Pager {
	return NewPagerWithCache(lister, defaultCacheSize, defaultCacheTTL)
}

// NewPagerWithCache creates a pager with a custom cache size and TTL.
func NewPagerWithCache(lister Lister, maxEntries int, ttl time.Duration) *Pager {
	return &Pager{
		lister: lister,
		cache:  newPageCache(maxEntries, ttl),
	}
}

// Page returns one history page, served from cache when fresh. Pagination
// bounds are rejected before any network round trip; everything else simply
// surfaces the repository client's error.
func (p *Pager) Page(ctx context.Context, problemID string, page, limit int) (*api.SubmissionPage, error) {
	if strings.TrimSpace(problemID) == "" {
		return nil, appErr.ValidationError("problemId", "required")
	}
	if page < 1 {
		return nil, appErr.ValidationError("page", "must be >= 1")
	}
	if limit < 1 {
		return nil, appErr.ValidationError("limit", "must be >= 1")
	}

	key := pageKey{problemID: problemID, page: page, limit: limit}
	if cached, ok := p.cache.Get(key); ok {
		logger.Debug(ctx, "history page served from cache",
			zap.String("problem_id", problemID),
			zap.Int("page", page),
			zap.Int("limit", limit))
		return cached, nil
	}

	result, err := p.lister.ListSubmissionsForProblem(ctx, problemID, page, limit)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, result)
	return result, nil
}

// Invalidate drops every cached page for a problem. Wire it to
// Tracker.OnTerminal so a freshly finished submission shows up on the next
// page read.
func (p *Pager) Invalidate(problemID string) {
	p.cache.DeleteProblem(problemID)
}
