package member

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrCheckSuperseded is returned when a fetch completes after its session was
// invalidated (logout); its result is discarded and must not be displayed.
var ErrCheckSuperseded = errors.New("survey check superseded")

// SurveyAPI is the upstream survey/approval status lookup.
type SurveyAPI interface {
	CheckSurveyStatus(ctx context.Context, userID int) (SurveyResult, error)
}

type checkEntry struct {
	result    *SurveyResult
	err       error
	fetchedAt time.Time
	gen       uint64
}

// Checker wraps a SurveyAPI with the survey lookup contract:
//
//   - concurrent checks for the same user share one in-flight fetch;
//   - at most one fetch per cool-down window, in-window checks are served the
//     cached outcome without queueing;
//   - a failed fetch degrades to the last-known result plus the error, it is
//     never retried automatically;
//   - Invalidate discards the cache entry and any in-flight fetch's effect so
//     a late response cannot resurrect a closed session.
type Checker struct {
	api      SurveyAPI
	cooldown time.Duration
	nowFunc  func() time.Time // mockable

	group   singleflight.Group
	mu      sync.Mutex
	entries map[int]*checkEntry
}

func NewChecker(api SurveyAPI, cooldown time.Duration) *Checker {
	return &Checker{
		api:      api,
		cooldown: cooldown,
		nowFunc:  time.Now,
		entries:  make(map[int]*checkEntry),
	}
}

// Check returns the survey status for userID. On failure the last-known
// result (possibly nil) is returned together with the error; the caller
// classifies fail-closed.
func (c *Checker) Check(ctx context.Context, userID int) (*SurveyResult, error) {
	c.mu.Lock()
	entry, ok := c.entries[userID]
	if !ok {
		entry = new(checkEntry)
		c.entries[userID] = entry
	}
	gen := entry.gen
	fetched := !entry.fetchedAt.IsZero()
	if fetched && c.nowFunc().Sub(entry.fetchedAt) < c.cooldown {
		// inside the cool-down window: serve the cached outcome
		result, err := entry.result, entry.err
		c.mu.Unlock()
		return result, err
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(strconv.Itoa(userID), func() (interface{}, error) {
		result, fetchErr := c.api.CheckSurveyStatus(ctx, userID)

		c.mu.Lock()
		defer c.mu.Unlock()
		cur, ok := c.entries[userID]
		if !ok || cur.gen != gen {
			// invalidated while in flight; discard
			return nil, ErrCheckSuperseded
		}
		cur.fetchedAt = c.nowFunc()
		if fetchErr != nil {
			cur.err = fetchErr
			return cur.result, fetchErr
		}
		cur.result, cur.err = &result, nil
		return &result, nil
	})
	if v == nil {
		return nil, err
	}
	return v.(*SurveyResult), err
}

// Invalidate discards the cached survey state for userID, typically on
// logout. A fetch already in flight will have its outcome dropped.
func (c *Checker) Invalidate(userID int) {
	c.mu.Lock()
	if entry, ok := c.entries[userID]; ok {
		entry.gen++
		entry.result = nil
		entry.err = nil
		entry.fetchedAt = time.Time{}
	}
	c.mu.Unlock()
	c.group.Forget(strconv.Itoa(userID))
}
