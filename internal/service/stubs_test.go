package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
	"github.com/noah-isme/campus-portal-api/pkg/config"
	"github.com/noah-isme/campus-portal-api/pkg/jobs"
	"github.com/noah-isme/campus-portal-api/pkg/mailer"
)

type stubContentRepo[T any, P models.ContentPtr[T]] struct {
	items     []*T
	listErr   error
	createErr error
	created   []*T
	updated   []*T
	deleted   []string
}

func (r *stubContentRepo[T, P]) List(context.Context) ([]*T, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*T, 0, len(r.items))
	for _, item := range r.items {
		cp := *item
		out = append(out, &cp)
	}
	return out, nil
}

func (r *stubContentRepo[T, P]) GetByID(_ context.Context, id string) (*T, error) {
	for _, item := range r.items {
		if P(item).Meta().ID == id {
			cp := *item
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubContentRepo[T, P]) Create(_ context.Context, item *T) error {
	if r.createErr != nil {
		return r.createErr
	}
	meta := P(item).Meta()
	if meta.ID == "" {
		meta.ID = "generated"
	}
	r.items = append(r.items, item)
	r.created = append(r.created, item)
	return nil
}

func (r *stubContentRepo[T, P]) Update(_ context.Context, item *T) error {
	id := P(item).Meta().ID
	for i, existing := range r.items {
		if P(existing).Meta().ID == id {
			cp := *item
			r.items[i] = &cp
			r.updated = append(r.updated, item)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *stubContentRepo[T, P]) Delete(_ context.Context, id string) error {
	for i, existing := range r.items {
		if P(existing).Meta().ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			r.deleted = append(r.deleted, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

type stubCache struct {
	mu          sync.Mutex
	invalidated []string
	stored      map[string]interface{}
	getErr      error
	gets        int
}

func (c *stubCache) Invalidate(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, pattern)
	return nil
}

func (c *stubCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.gets++
	if c.getErr != nil {
		return false, c.getErr
	}
	cached, ok := c.stored[key].(*dto.DashboardStats)
	target, isStats := dest.(*dto.DashboardStats)
	if !ok || !isStats {
		return false, nil
	}
	*target = *cached
	return true, nil
}

func (c *stubCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if c.stored == nil {
		c.stored = map[string]interface{}{}
	}
	c.stored[key] = value
	return nil
}

// stubReadMarks mirrors the insert-if-absent semantics of the read mark table.
type stubReadMarks struct {
	marks   map[string]map[string]time.Time
	markErr error
}

func (s *stubReadMarks) Mark(_ context.Context, userID, announcementID string, markedAt time.Time) (bool, error) {
	if s.markErr != nil {
		return false, s.markErr
	}
	if s.marks == nil {
		s.marks = map[string]map[string]time.Time{}
	}
	if s.marks[userID] == nil {
		s.marks[userID] = map[string]time.Time{}
	}
	if _, ok := s.marks[userID][announcementID]; ok {
		return false, nil
	}
	s.marks[userID][announcementID] = markedAt
	return true, nil
}

func (s *stubReadMarks) ReadIDs(_ context.Context, userID string, ids []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, id := range ids {
		if _, ok := s.marks[userID][id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// stubLedger mirrors the transactional vote statement against an in-memory poll.
type stubLedger struct {
	mu      sync.Mutex
	polls   map[string]*models.Poll
	voters  map[string]map[string]int
	castErr error
	now     time.Time
}

func newStubLedger(now time.Time, polls ...*models.Poll) *stubLedger {
	l := &stubLedger{polls: map[string]*models.Poll{}, voters: map[string]map[string]int{}, now: now}
	for _, p := range polls {
		l.polls[p.ID] = p
	}
	return l
}

func (l *stubLedger) Cast(_ context.Context, vote models.PollVote) (*models.PollTally, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.castErr != nil {
		return nil, l.castErr
	}
	if l.voters[vote.PollID] == nil {
		l.voters[vote.PollID] = map[string]int{}
	}
	if _, ok := l.voters[vote.PollID][vote.VoterID]; ok {
		return nil, repository.ErrDuplicateVote
	}
	poll, ok := l.polls[vote.PollID]
	if !ok || poll.Deadline.Before(l.now) || vote.OptionIndex >= len(poll.VoteCounts) {
		return nil, repository.ErrPollNotOpen
	}
	l.voters[vote.PollID][vote.VoterID] = vote.OptionIndex
	poll.VoteCounts[vote.OptionIndex]++
	poll.TotalVotes++
	tally := poll.Tally()
	return &tally, nil
}

func (l *stubLedger) VotedPollIDs(_ context.Context, voterID string, pollIDs []string) (map[string]bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := map[string]bool{}
	for _, id := range pollIDs {
		if _, ok := l.voters[id][voterID]; ok {
			out[id] = true
		}
	}
	return out, nil
}

type stubPollLoader struct {
	ledger *stubLedger
	err    error
}

func (s stubPollLoader) GetByID(_ context.Context, id string) (*models.Poll, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()
	poll, ok := s.ledger.polls[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *poll
	cp.VoteCounts = append([]int64(nil), poll.VoteCounts...)
	return &cp, nil
}

type stubRecipients struct {
	byAudience map[string][]models.Recipient
	err        error
	calls      []string
}

func (s *stubRecipients) RecipientsForAudience(_ context.Context, audience string) ([]models.Recipient, error) {
	s.calls = append(s.calls, audience)
	if s.err != nil {
		return nil, s.err
	}
	return s.byAudience[audience], nil
}

type stubSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *stubSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubQueue struct {
	jobs []jobs.Job
	full bool
}

func (q *stubQueue) Start(context.Context) {}

func (q *stubQueue) Stop() {}

func (q *stubQueue) TryEnqueue(job jobs.Job) error {
	if q.full {
		return jobs.ErrQueueFull
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type recordedNotice struct {
	audience string
	subject  string
	body     string
}

type stubNotifier struct {
	notices []recordedNotice
}

func (n *stubNotifier) NotifyAudience(audience, subject, body string) {
	n.notices = append(n.notices, recordedNotice{audience: audience, subject: subject, body: body})
}

var errStorage = errors.New("connection reset")

func newTestValidator(t interface{ Fatalf(string, ...interface{}) }) *validator.Validate {
	v, err := NewValidator(config.DefaultAudienceSegments)
	if err != nil {
		t.Fatalf("register audience validation: %v", err)
	}
	return v
}
