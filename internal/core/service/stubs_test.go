package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[domain.UserID]*domain.User
	seq     int
	findErr error
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{byID: make(map[domain.UserID]*domain.User)}
	for _, u := range users {
		r.put(u)
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) put(u *domain.User) *domain.User {
	if u.ID == "" {
		r.seq++
		u.ID = domain.UserID(fmt.Sprintf("65f0000000000000000000%02d", r.seq))
	}
	r.byID[u.ID] = cloneUser(u)
	return u
}

func (r *stubUserRepo) FindByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if u, ok := r.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByExternalID(_ context.Context, id domain.ExternalID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.ExternalID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByExternalIDs(_ context.Context, ids []domain.ExternalID) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, id := range ids {
		for _, u := range r.byID {
			if u.ExternalID == id {
				out = append(out, cloneUser(u))
			}
		}
	}
	return out, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if username != "" && u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Ensure(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.ExternalID == u.ExternalID {
			return cloneUser(existing), nil
		}
	}
	return cloneUser(r.put(cloneUser(u))), nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id domain.ExternalID, p domain.ProfilePatch, markOnboarded bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.ExternalID != id {
			continue
		}
		if p.Username != nil {
			u.Username = *p.Username
		}
		if p.DisplayName != nil {
			u.DisplayName = *p.DisplayName
		}
		if p.Age != nil {
			u.Age = *p.Age
		}
		if p.Bio != nil {
			u.Bio = *p.Bio
		}
		if p.Interests != nil {
			u.Interests = p.Interests
		}
		if p.Links != nil {
			u.Links = p.Links
		}
		if p.ImageRefs != nil {
			u.ImageRefs = p.ImageRefs
		}
		if markOnboarded {
			u.Onboarded = true
		}
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

// ---------------------------------------------------------------------------
// Conversations and messages share one store so Append can patch the
// conversation summary the way the transactional repository does.
// ---------------------------------------------------------------------------

type stubChatStore struct {
	mu            sync.Mutex
	conversations map[string]*domain.Conversation
	messages      []*domain.Message
	seq           int
	appendErr     error
	appendGate    *gate
}

func newStubChatStore() *stubChatStore {
	return &stubChatStore{conversations: make(map[string]*domain.Conversation)}
}

func (s *stubChatStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%04d", prefix, s.seq)
}

func cloneConversation(c *domain.Conversation) *domain.Conversation {
	clone := *c
	clone.ParticipantIDs = append([]domain.ExternalID(nil), c.ParticipantIDs...)
	if c.LastMessage != nil {
		msg := *c.LastMessage
		clone.LastMessage = &msg
	}
	return &clone
}

func (s *stubChatStore) FindByID(_ context.Context, id string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[id]; ok {
		return cloneConversation(c), nil
	}
	return nil, domain.ErrConversationNotFound
}

func (s *stubChatStore) findDirect(a, b domain.ExternalID) *domain.Conversation {
	key := domain.PairKey(a, b)
	for _, c := range s.conversations {
		if c.Type == domain.ConversationDirect && len(c.ParticipantIDs) == 2 &&
			domain.PairKey(c.ParticipantIDs[0], c.ParticipantIDs[1]) == key {
			return c
		}
	}
	return nil
}

func (s *stubChatStore) FindDirect(_ context.Context, a, b domain.ExternalID) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.findDirect(a, b); c != nil {
		return cloneConversation(c), nil
	}
	return nil, domain.ErrConversationNotFound
}

func (s *stubChatStore) FindOrCreateDirect(_ context.Context, requester, other domain.ExternalID, now time.Time) (*domain.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.findDirect(requester, other); c != nil {
		return cloneConversation(c), false, nil
	}
	c := &domain.Conversation{
		ID:             s.nextID("conv_"),
		Type:           domain.ConversationDirect,
		ParticipantIDs: []domain.ExternalID{requester, other},
		CreatedAt:      now,
		LastMessageAt:  now,
	}
	s.conversations[c.ID] = c
	return cloneConversation(c), true, nil
}

func (s *stubChatStore) ListForParticipant(_ context.Context, id domain.ExternalID) ([]*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Conversation
	for _, c := range s.conversations {
		if c.HasParticipant(id) {
			out = append(out, cloneConversation(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (s *stubChatStore) Append(_ context.Context, msg *domain.Message) error {
	s.appendGate.pass()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	c, ok := s.conversations[msg.ConversationID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	msg.ID = s.nextID("msg_")
	stored := *msg
	s.messages = append(s.messages, &stored)
	content := msg.Content
	c.LastMessage = &content
	c.LastMessageAt = msg.CreatedAt
	return nil
}

func (s *stubChatStore) ListByConversation(_ context.Context, conversationID string) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *stubChatStore) CountUnread(_ context.Context, receiver domain.ExternalID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.ReceiverID == receiver && !m.Read {
			n++
		}
	}
	return n, nil
}

func (s *stubChatStore) MarkRead(_ context.Context, conversationID string, receiver domain.ExternalID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.ReceiverID == receiver && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Organizations, checklists, tasks
// ---------------------------------------------------------------------------

type stubBoardRepo struct {
	orgs       map[string]*domain.Organization
	checklists map[string]*domain.Checklist
	tasks      map[string]*domain.Task
	order      []string
	seq        int
	createErr  error
}

func newStubBoardRepo() *stubBoardRepo {
	return &stubBoardRepo{
		orgs:       make(map[string]*domain.Organization),
		checklists: make(map[string]*domain.Checklist),
		tasks:      make(map[string]*domain.Task),
	}
}

func (r *stubBoardRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s%04d", prefix, r.seq)
}

type stubOrgRepo struct{ *stubBoardRepo }
type stubChecklistRepo struct{ *stubBoardRepo }
type stubTaskRepo struct{ *stubBoardRepo }

func (r stubOrgRepo) Create(_ context.Context, org *domain.Organization) error {
	if r.createErr != nil {
		return r.createErr
	}
	org.ID = r.nextID("org_")
	clone := *org
	r.orgs[org.ID] = &clone
	return nil
}

func (r stubOrgRepo) FindByID(_ context.Context, id string) (*domain.Organization, error) {
	if org, ok := r.orgs[id]; ok {
		clone := *org
		return &clone, nil
	}
	return nil, domain.ErrOrganizationNotFound
}

func (r stubOrgRepo) Update(_ context.Context, id string, p domain.OrganizationPatch, now time.Time) (*domain.Organization, error) {
	org, ok := r.orgs[id]
	if !ok {
		return nil, domain.ErrOrganizationNotFound
	}
	if p.Name != nil {
		org.Name = *p.Name
	}
	if p.Description != nil {
		org.Description = *p.Description
	}
	if p.LogoRef != nil {
		org.LogoRef = *p.LogoRef
	}
	org.UpdatedAt = now
	clone := *org
	return &clone, nil
}

func (r stubChecklistRepo) Create(_ context.Context, c *domain.Checklist) error {
	c.ID = r.nextID("chk_")
	clone := *c
	r.checklists[c.ID] = &clone
	return nil
}

func (r stubChecklistRepo) FindByID(_ context.Context, id string) (*domain.Checklist, error) {
	if c, ok := r.checklists[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, domain.ErrChecklistNotFound
}

func (r stubTaskRepo) Create(_ context.Context, t *domain.Task) error {
	if r.createErr != nil {
		return r.createErr
	}
	t.ID = r.nextID("task_")
	clone := *t
	r.tasks[t.ID] = &clone
	r.order = append(r.order, t.ID)
	return nil
}

func (r stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	if t, ok := r.tasks[id]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (r stubTaskRepo) ListByOrganization(_ context.Context, orgID string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, id := range r.order {
		if t, ok := r.tasks[id]; ok && t.OrganizationID == orgID {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r stubTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// ---------------------------------------------------------------------------
// Submissions and notifications
// ---------------------------------------------------------------------------

type stubSubmissionRepo struct {
	items map[string]*domain.Submission
	order []string
}

func newStubSubmissionRepo() *stubSubmissionRepo {
	return &stubSubmissionRepo{items: make(map[string]*domain.Submission)}
}

func (r *stubSubmissionRepo) Create(_ context.Context, s *domain.Submission) error {
	s.ID = fmt.Sprintf("sub_%04d", len(r.order)+1)
	clone := *s
	r.items[s.ID] = &clone
	r.order = append(r.order, s.ID)
	return nil
}

func (r *stubSubmissionRepo) FindByID(_ context.Context, id string) (*domain.Submission, error) {
	if s, ok := r.items[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, domain.ErrSubmissionNotFound
}

func (r *stubSubmissionRepo) list(match func(*domain.Submission) bool) []*domain.Submission {
	var out []*domain.Submission
	for _, id := range r.order {
		if s := r.items[id]; match(s) {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out
}

func (r *stubSubmissionRepo) ListByTask(_ context.Context, taskID string) ([]*domain.Submission, error) {
	return r.list(func(s *domain.Submission) bool { return s.TaskID == taskID }), nil
}

func (r *stubSubmissionRepo) ListByUser(_ context.Context, userID domain.ExternalID) ([]*domain.Submission, error) {
	return r.list(func(s *domain.Submission) bool { return s.UserID == userID }), nil
}

func (r *stubSubmissionRepo) UpdateStatus(_ context.Context, id string, status domain.SubmissionStatus, reviewer domain.ExternalID, now time.Time) (*domain.Submission, error) {
	s, ok := r.items[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	s.Status = status
	s.ReviewedBy = reviewer
	s.UpdatedAt = now
	clone := *s
	return &clone, nil
}

type stubNotificationRepo struct {
	items     []*domain.Notification
	createErr error
}

func (r *stubNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	n.ID = fmt.Sprintf("ntf_%04d", len(r.items)+1)
	clone := *n
	r.items = append(r.items, &clone)
	return nil
}

func (r *stubNotificationRepo) ListByUser(_ context.Context, userID domain.ExternalID, limit int) ([]*domain.Notification, error) {
	var out []*domain.Notification
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		if r.items[i].UserID == userID {
			clone := *r.items[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, id string, userID domain.ExternalID) error {
	for _, n := range r.items {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (r *stubNotificationRepo) CountUnread(_ context.Context, userID domain.ExternalID) (int64, error) {
	var n int64
	for _, item := range r.items {
		if item.UserID == userID && !item.Read {
			n++
		}
	}
	return n, nil
}

func (r *stubNotificationRepo) forUser(id domain.ExternalID) []*domain.Notification {
	var out []*domain.Notification
	for _, n := range r.items {
		if n.UserID == id {
			out = append(out, n)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Infrastructure ports
// ---------------------------------------------------------------------------

// stubIdempotencyStore keeps an empty value for keys that are claimed but
// not yet completed.
type stubIdempotencyStore struct {
	mu       sync.Mutex
	values   map[string]string
	claimErr error
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{values: make(map[string]string)}
}

func (s *stubIdempotencyStore) Claim(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return "", false, s.claimErr
	}
	if v, held := s.values[scope+"/"+key]; held {
		return v, false, nil
	}
	s.values[scope+"/"+key] = ""
	return "", true, nil
}

func (s *stubIdempotencyStore) Complete(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[scope+"/"+key] = value
	return nil
}

func (s *stubIdempotencyStore) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, scope+"/"+key)
	return nil
}

func (s *stubIdempotencyStore) held(scope, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[scope+"/"+key]
	return ok
}

// gate lets a test hold a call in flight: the call signals entered and then
// waits for release.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) pass() {
	if g == nil {
		return
	}
	g.entered <- struct{}{}
	<-g.release
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.RealtimeEvent
}

func (p *recordingPublisher) Enqueue(e domain.RealtimeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

type stubObjectStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	meta    map[string]*domain.StoredFile
	putErr  error
	putGate *gate
}

func newStubObjectStore() *stubObjectStore {
	return &stubObjectStore{files: make(map[string][]byte), meta: make(map[string]*domain.StoredFile)}
}

func (s *stubObjectStore) Put(_ context.Context, owner domain.ExternalID, contentType string, r io.Reader) (*domain.StoredFile, error) {
	s.putGate.pass()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return nil, s.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	id := fmt.Sprintf("file_%04d", len(s.files)+1)
	s.files[id] = b
	f := &domain.StoredFile{StorageID: id, ContentType: contentType, Size: int64(len(b)), OwnerID: owner, UploadedAt: time.Now().UTC()}
	s.meta[id] = f
	return f, nil
}

func (s *stubObjectStore) Stat(_ context.Context, id string) (*domain.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.meta[id]; ok {
		return f, nil
	}
	return nil, domain.ErrFileNotFound
}

func (s *stubObjectStore) Open(_ context.Context, id string) (io.ReadCloser, *domain.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.meta[id]
	if !ok {
		return nil, nil, domain.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(s.files[id])), f, nil
}

type stubAccountRepo struct {
	accounts map[string]*domain.Account
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	if _, exists := r.accounts[a.Email]; exists {
		return nil, domain.ErrUserExists
	}
	clone := *a
	clone.ID = fmt.Sprintf("acct_%04d", len(r.accounts)+1)
	r.accounts[a.Email] = &clone
	out := clone
	return &out, nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	if a, ok := r.accounts[email]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	_ ports.UserRepository         = (*stubUserRepo)(nil)
	_ ports.ConversationRepository = (*stubChatStore)(nil)
	_ ports.MessageRepository      = (*stubChatStore)(nil)
	_ ports.OrganizationRepository = stubOrgRepo{}
	_ ports.ChecklistRepository    = stubChecklistRepo{}
	_ ports.TaskRepository         = stubTaskRepo{}
	_ ports.SubmissionRepository   = (*stubSubmissionRepo)(nil)
	_ ports.NotificationRepository = (*stubNotificationRepo)(nil)
	_ ports.IdempotencyStore       = (*stubIdempotencyStore)(nil)
	_ ports.ObjectStore            = (*stubObjectStore)(nil)
	_ ports.AccountRepository      = (*stubAccountRepo)(nil)
)

func actor(id string) domain.Actor {
	return domain.Actor{ExternalID: domain.ExternalID(id)}
}

// fixedClock returns a clock that advances by step on every call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}
