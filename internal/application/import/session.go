package importapp

import (
	"time"

	"github.com/google/uuid"
)

// ImportState is a stage of a single import request
type ImportState string

const (
	StateValidating        ImportState = "validating"
	StateDeduplicating     ImportState = "deduplicating"
	StateResolvingCategory ImportState = "resolving_category"
	StateResolvingVendor   ImportState = "resolving_vendor"
	StateAllocatingSlug    ImportState = "allocating_slug"
	StateWriting           ImportState = "writing"
	StateSucceeded         ImportState = "succeeded"
	StateFailed            ImportState = "failed"
)

// IsTerminal returns true for Succeeded and Failed
func (s ImportState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

var allowedTransitions = map[ImportState][]ImportState{
	StateValidating:        {StateDeduplicating, StateFailed},
	StateDeduplicating:     {StateResolvingCategory, StateSucceeded, StateFailed},
	StateResolvingCategory: {StateResolvingVendor, StateFailed},
	StateResolvingVendor:   {StateAllocatingSlug, StateFailed},
	StateAllocatingSlug:    {StateWriting, StateSucceeded, StateFailed},
	StateWriting:           {StateSucceeded, StateFailed},
}

// CanTransitionTo reports whether the pipeline may move from s to next
func (s ImportState) CanTransitionTo(next ImportState) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StageRecord is one entry of the session timeline
type StageRecord struct {
	State     ImportState `json:"state"`
	StartedAt time.Time   `json:"startedAt"`
	Duration  string      `json:"duration,omitempty"`
}

// ImportSession tracks one import request through the pipeline stages.
// It is owned by a single request and is not safe for concurrent use.
type ImportSession struct {
	ID                uuid.UUID     `json:"id"`
	SourceURL         string        `json:"sourceUrl"`
	State             ImportState   `json:"state"`
	FailedAt          ImportState   `json:"failedAt,omitempty"`
	FailureCode       string        `json:"failureCode,omitempty"`
	Timeline          []StageRecord `json:"timeline"`
	CreatedAt         time.Time     `json:"createdAt"`
	CompletedAt       *time.Time    `json:"completedAt,omitempty"`
	CreatedCategoryID *uuid.UUID    `json:"createdCategoryId,omitempty"`
	CreatedVendorID   *uuid.UUID    `json:"createdVendorId,omitempty"`

	now func() time.Time
}

// NewImportSession starts a session in the Validating state
func NewImportSession(sourceURL string) *ImportSession {
	return newImportSession(sourceURL, time.Now)
}

func newImportSession(sourceURL string, now func() time.Time) *ImportSession {
	started := now()
	return &ImportSession{
		ID:        uuid.New(),
		SourceURL: sourceURL,
		State:     StateValidating,
		Timeline:  []StageRecord{{State: StateValidating, StartedAt: started}},
		CreatedAt: started,
		now:       now,
	}
}

// Advance moves the session to next. Invalid transitions are ignored and reported as false.
func (s *ImportSession) Advance(next ImportState) bool {
	if !s.State.CanTransitionTo(next) {
		return false
	}
	s.enter(next)
	return true
}

// Succeed moves the session to Succeeded
func (s *ImportSession) Succeed() bool {
	return s.Advance(StateSucceeded)
}

// Fail moves the session to Failed, remembering the stage and error code
func (s *ImportSession) Fail(code string) bool {
	if s.State.IsTerminal() {
		return false
	}
	s.FailedAt = s.State
	s.FailureCode = code
	s.enter(StateFailed)
	return true
}

// Elapsed returns the time since the session started
func (s *ImportSession) Elapsed() time.Duration {
	end := s.now()
	if s.CompletedAt != nil {
		end = *s.CompletedAt
	}
	return end.Sub(s.CreatedAt)
}

// OrphanCandidates returns the ids of the default category and vendor created
// by a session that then failed; nothing removes them
func (s *ImportSession) OrphanCandidates() []string {
	if s.State != StateFailed {
		return nil
	}
	var ids []string
	if s.CreatedCategoryID != nil {
		ids = append(ids, "category:"+s.CreatedCategoryID.String())
	}
	if s.CreatedVendorID != nil {
		ids = append(ids, "vendor:"+s.CreatedVendorID.String())
	}
	return ids
}

func (s *ImportSession) enter(next ImportState) {
	at := s.now()
	if n := len(s.Timeline); n > 0 {
		s.Timeline[n-1].Duration = at.Sub(s.Timeline[n-1].StartedAt).String()
	}
	s.State = next
	if next.IsTerminal() {
		s.CompletedAt = &at
	}
	s.Timeline = append(s.Timeline, StageRecord{State: next, StartedAt: at})
}
