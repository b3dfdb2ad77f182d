package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/list42/internal/model"
)

// ErrClosed is returned after the store has been torn down.
var ErrClosed = errors.New("cache closed")

const indexKey = "lists"

// Lists returns the cached list index, fetching it in the background when
// missing or invalidated.
func (s *Store) Lists() IndexEntry {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return IndexEntry{Status: StatusAbsent}
	}
	ix := &s.index
	fetch := !ix.loading && (ix.stale || (!ix.has && ix.err == nil))
	if fetch {
		ix.loading = true
	}
	v := s.indexViewLocked()
	s.mu.Unlock()

	if fetch {
		s.notify(Event{Kind: EventLoading})
		s.group.DoChan(indexKey, func() (any, error) {
			return s.fetchLists()
		})
	}
	return v
}

// LoadLists returns the list index, fetching it when missing or stale.
func (s *Store) LoadLists(ctx context.Context) ([]model.ListSummary, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.index.has && !s.index.stale && !s.index.loading {
		lists := cloneSummaries(s.index.lists)
		s.mu.Unlock()
		return lists, nil
	}
	s.index.loading = true
	s.mu.Unlock()

	ch := s.group.DoChan(indexKey, func() (any, error) {
		return s.fetchLists()
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneSummaries(res.Val.([]model.ListSummary)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetchLists refetches while the index is invalidated mid-request.
func (s *Store) fetchLists() ([]model.ListSummary, error) {
	for {
		lists, again, err := s.fetchListsOnce()
		if !again {
			return lists, err
		}
		s.logger.Debug("list index invalidated during fetch, refetching")
	}
}

func (s *Store) fetchListsOnce() ([]model.ListSummary, bool, error) {
	s.mu.Lock()
	s.index.loading = true
	start, inv := s.index.version, s.index.invalidated
	s.mu.Unlock()

	lists, err := s.fetcher.ListLists(s.ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, false, ErrClosed
	}
	ix := &s.index
	if ix.invalidated != inv && s.ctx.Err() == nil {
		s.mu.Unlock()
		return nil, true, nil
	}
	ix.loading = false
	if ix.version == start {
		ix.stale = false
		ix.version++
		if err != nil {
			ix.err = err
		} else {
			ix.lists = cloneSummaries(lists)
			ix.has = true
			ix.err = nil
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("fetch list index failed", "error", err)
		s.notify(Event{Kind: EventFailed})
		return nil, false, fmt.Errorf("fetch lists: %w", err)
	}
	s.notify(Event{Kind: EventFetched})
	return lists, false, nil
}

func (s *Store) indexViewLocked() IndexEntry {
	ix := s.index
	v := IndexEntry{Lists: cloneSummaries(ix.lists), Err: ix.err}
	switch {
	case ix.loading:
		v.Status = StatusLoading
	case ix.err != nil:
		v.Status = StatusFailed
	case ix.has:
		v.Status = StatusReady
	default:
		v.Status = StatusAbsent
	}
	return v
}

func cloneSummaries(in []model.ListSummary) []model.ListSummary {
	if in == nil {
		return nil
	}
	out := make([]model.ListSummary, len(in))
	copy(out, in)
	return out
}
