package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/po-agents/internal/jobs"
)

// Store keeps order jobs in memory, indexed by document source so the API
// can answer "what happened to gs://bucket/po.png" without a full scan.
// Jobs are lost on restart.
type Store struct {
	mu       sync.RWMutex
	seq      uint64
	entries  map[string]*entry
	bySource map[string]map[string]struct{}
}

type entry struct {
	job *jobs.ProcessOrderJob
	seq uint64 // insertion order, breaks CreatedAt ties
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries:  make(map[string]*entry),
		bySource: make(map[string]map[string]struct{}),
	}
}

// cloneJob copies job including its timestamps, so neither the caller nor
// the store can change the other's view.
func cloneJob(job *jobs.ProcessOrderJob) *jobs.ProcessOrderJob {
	c := *job
	if job.StartedAt != nil {
		t := *job.StartedAt
		c.StartedAt = &t
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// SaveJob inserts or replaces job.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ProcessOrderJob) error {
	if job == nil || job.JobID == "" {
		return errors.New("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[job.JobID]
	if !ok {
		s.seq++
		e = &entry{seq: s.seq}
		s.entries[job.JobID] = e
	} else if e.job.Source != job.Source {
		s.unindex(e.job.Source, job.JobID)
	}
	e.job = cloneJob(job)

	ids := s.bySource[job.Source]
	if ids == nil {
		ids = make(map[string]struct{})
		s.bySource[job.Source] = ids
	}
	ids[job.JobID] = struct{}{}
	return nil
}

func (s *Store) unindex(source, jobID string) {
	ids := s.bySource[source]
	delete(ids, jobID)
	if len(ids) == 0 {
		delete(s.bySource, source)
	}
}

// GetJob returns a copy of the job with jobID.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ProcessOrderJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[jobID]
	if !ok {
		return nil, fmt.Errorf("GetJob: %w: %s", jobs.ErrJobNotFound, jobID)
	}
	return cloneJob(e.job), nil
}

// ListJobs returns copies of the jobs matching filter, newest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ProcessOrderJob, error) {
	s.mu.RLock()
	var candidates []*entry
	if filter.Source != "" {
		for id := range s.bySource[filter.Source] {
			candidates = append(candidates, s.entries[id])
		}
	} else {
		for _, e := range s.entries {
			candidates = append(candidates, e)
		}
	}

	matched := make([]*entry, 0, len(candidates))
	for _, e := range candidates {
		if filter.Status != "" && e.job.Status != filter.Status {
			continue
		}
		matched = append(matched, &entry{job: cloneJob(e.job), seq: e.seq})
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.job.CreatedAt.Equal(b.job.CreatedAt) {
			return a.seq > b.seq
		}
		return a.job.CreatedAt.After(b.job.CreatedAt)
	})

	offset := max(filter.Offset, 0)
	if offset >= len(matched) {
		return []*jobs.ProcessOrderJob{}, nil
	}
	matched = matched[offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	result := make([]*jobs.ProcessOrderJob, len(matched))
	for i, e := range matched {
		result[i] = e.job
	}
	return result, nil
}

// UpdateJobStatus sets the status of a stored job. Completed and failed
// jobs get a completion time if they have none; errorMsg, when set,
// replaces the recorded error.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[jobID]
	if !ok {
		return fmt.Errorf("UpdateJobStatus: %w: %s", jobs.ErrJobNotFound, jobID)
	}

	e.job.Status = status
	if errorMsg != "" {
		e.job.Error = errorMsg
	}
	if (status == jobs.JobStatusCompleted || status == jobs.JobStatusFailed) && e.job.CompletedAt == nil {
		now := time.Now()
		e.job.CompletedAt = &now
	}
	return nil
}

var _ jobs.JobStore = (*Store)(nil)
