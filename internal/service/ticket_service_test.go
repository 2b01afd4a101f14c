package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/conny0506/jira-lite/internal/domain"
	"github.com/conny0506/jira-lite/internal/repository"
	"github.com/conny0506/jira-lite/internal/storage"
)

type fakeProjectRepo struct {
	mu       sync.Mutex
	nextID   uint
	projects map[uint]*domain.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[uint]*domain.Project)}
}

func (r *fakeProjectRepo) Create(p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) FindByID(id uint) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) List() ([]domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Project
	for _, p := range r.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProjectRepo) Update(p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	return nil
}

type fakeTicketRepo struct {
	mu          sync.Mutex
	nextID      uint
	nextSubID   uint
	tickets     map[uint]*domain.Ticket
	submissions map[uint]*domain.Submission
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:     make(map[uint]*domain.Ticket),
		submissions: make(map[uint]*domain.Submission),
	}
}

func (r *fakeTicketRepo) Create(t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	cp := *t
	r.tickets[t.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) FindByID(id uint) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTicketRepo) ListByProject(projectID uint) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListByAssignee(memberID uint) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.AssigneeID != nil && *t.AssigneeID == memberID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) Update(t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tickets[t.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) AddSubmission(sub *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSubID++
	sub.ID = r.nextSubID
	cp := *sub
	r.submissions[sub.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) UpdateSubmission(sub *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.submissions[sub.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) FindSubmission(id uint) (*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.submissions[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	cp := *sub
	return &cp, nil
}

type fakeDeliverableStore struct {
	objects map[string]int64
}

func newFakeDeliverableStore() *fakeDeliverableStore {
	return &fakeDeliverableStore{objects: make(map[string]int64)}
}

func (s *fakeDeliverableStore) DeliverableUploadURL(_ context.Context, ticketID uint, fileName, _ string, sizeBytes int64) (*storage.UploadInfo, error) {
	if sizeBytes <= 0 {
		return nil, storage.ErrInvalidUpload
	}
	key := fmt.Sprintf("deliverables/%d/%s", ticketID, fileName)
	return &storage.UploadInfo{UploadURL: "https://store.example.com/" + key, ObjectKey: key}, nil
}

func (s *fakeDeliverableStore) ConfirmDeliverable(_ context.Context, ticketID uint, key string) (int64, error) {
	prefix := fmt.Sprintf("deliverables/%d/", ticketID)
	if len(key) < len(prefix) || key[:len(prefix)] != prefix {
		return 0, storage.ErrInvalidUpload
	}
	size, ok := s.objects[key]
	if !ok {
		return 0, storage.ErrDeliverableMissing
	}
	return size, nil
}

func (s *fakeDeliverableStore) DeliverableDownloadURL(_ context.Context, key, _ string) (string, error) {
	return "https://store.example.com/" + key + "?signed", nil
}

type ticketFixture struct {
	svc          *TicketService
	projects     *fakeProjectRepo
	tickets      *fakeTicketRepo
	deliverables *fakeDeliverableStore
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	projects := newFakeProjectRepo()
	tickets := newFakeTicketRepo()
	store := newFakeDeliverableStore()
	return &ticketFixture{
		svc:          NewTicketService(projects, tickets, store),
		projects:     projects,
		tickets:      tickets,
		deliverables: store,
	}
}

func captain() *domain.Member {
	return &domain.Member{ID: 1, Email: "captain@example.com", Role: domain.RoleCaptain, Active: true}
}

func plainMember(id uint) *domain.Member {
	return &domain.Member{ID: id, Email: fmt.Sprintf("member%d@example.com", id), Role: domain.RoleMember, Active: true}
}

func (f *ticketFixture) seedTicket(t *testing.T, assignee *uint) *domain.Ticket {
	t.Helper()
	p, err := f.svc.CreateProject(context.Background(), captain(), "Platform", "infra work")
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	tk, err := f.svc.CreateTicket(context.Background(), captain(), CreateTicketInput{
		ProjectID:  p.ID,
		Title:      "Fix the build",
		AssigneeID: assignee,
	})
	if err != nil {
		t.Fatalf("ticket: %v", err)
	}
	return tk
}

func TestCreateProjectAndTicketAuthorization(t *testing.T) {
	f := newTicketFixture(t)

	if _, err := f.svc.CreateProject(context.Background(), plainMember(2), "P", ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("member create project: expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.CreateProject(context.Background(), captain(), "", ""); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("empty name: expected ErrBadRequest, got %v", err)
	}
	if _, err := f.svc.CreateTicket(context.Background(), captain(), CreateTicketInput{ProjectID: 99, Title: "T"}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("missing project: expected ErrBadRequest, got %v", err)
	}
}

func TestCreateTicketStatus(t *testing.T) {
	f := newTicketFixture(t)

	unassigned := f.seedTicket(t, nil)
	if unassigned.Status != domain.TicketOpen {
		t.Fatalf("status = %s, want OPEN", unassigned.Status)
	}

	assignee := uint(2)
	assigned := f.seedTicket(t, &assignee)
	if assigned.Status != domain.TicketInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", assigned.Status)
	}
}

func TestAssignTicket(t *testing.T) {
	f := newTicketFixture(t)
	tk := f.seedTicket(t, nil)

	if _, err := f.svc.AssignTicket(context.Background(), plainMember(2), tk.ID, 2); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("member assign: expected ErrUnauthorized, got %v", err)
	}

	updated, err := f.svc.AssignTicket(context.Background(), captain(), tk.ID, 2)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.AssigneeID == nil || *updated.AssigneeID != 2 {
		t.Fatalf("assignee not set: %+v", updated)
	}
	if updated.Status != domain.TicketInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", updated.Status)
	}
}

func TestDeliverableFlow(t *testing.T) {
	f := newTicketFixture(t)
	assignee := uint(2)
	tk := f.seedTicket(t, &assignee)
	actor := plainMember(2)

	// Only the assignee may request an upload slot.
	if _, err := f.svc.RequestDeliverableUpload(context.Background(), plainMember(3), tk.ID, "report.pdf", "application/pdf", 1024); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-assignee upload: expected ErrUnauthorized, got %v", err)
	}

	info, err := f.svc.RequestDeliverableUpload(context.Background(), actor, tk.ID, "report.pdf", "application/pdf", 1024)
	if err != nil {
		t.Fatalf("request upload: %v", err)
	}
	if info.UploadURL == "" || info.ObjectKey == "" {
		t.Fatalf("incomplete upload info: %+v", info)
	}

	// Submitting before the object exists fails.
	if _, err := f.svc.SubmitDeliverable(context.Background(), actor, tk.ID, info.ObjectKey, "report.pdf", "application/pdf"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("missing object: expected ErrBadRequest, got %v", err)
	}

	f.deliverables.objects[info.ObjectKey] = 1024
	sub, err := f.svc.SubmitDeliverable(context.Background(), actor, tk.ID, info.ObjectKey, "report.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.SizeBytes != 1024 {
		t.Fatalf("size = %d", sub.SizeBytes)
	}
	stored, err := f.tickets.FindByID(tk.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != domain.TicketSubmitted {
		t.Fatalf("status = %s, want SUBMITTED", stored.Status)
	}

	// A key from another ticket's prefix is rejected.
	if _, err := f.svc.SubmitDeliverable(context.Background(), actor, tk.ID, "deliverables/999/other.pdf", "other.pdf", "application/pdf"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("foreign key: expected ErrBadRequest, got %v", err)
	}
}

func TestReviewSubmission(t *testing.T) {
	f := newTicketFixture(t)
	assignee := uint(2)
	tk := f.seedTicket(t, &assignee)
	actor := plainMember(2)

	info, err := f.svc.RequestDeliverableUpload(context.Background(), actor, tk.ID, "report.pdf", "application/pdf", 1024)
	if err != nil {
		t.Fatalf("request upload: %v", err)
	}
	f.deliverables.objects[info.ObjectKey] = 1024
	sub, err := f.svc.SubmitDeliverable(context.Background(), actor, tk.ID, info.ObjectKey, "report.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := f.svc.ReviewSubmission(context.Background(), actor, sub.ID, true, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("assignee review: expected ErrUnauthorized, got %v", err)
	}

	reviewed, err := f.svc.ReviewSubmission(context.Background(), captain(), sub.ID, false, "needs work")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Approved == nil || *reviewed.Approved {
		t.Fatalf("approval flag: %+v", reviewed.Approved)
	}
	stored, err := f.tickets.FindByID(tk.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != domain.TicketRejected {
		t.Fatalf("status = %s, want REJECTED", stored.Status)
	}

	// Double review is rejected.
	if _, err := f.svc.ReviewSubmission(context.Background(), captain(), sub.ID, true, ""); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("second review: expected ErrBadRequest, got %v", err)
	}

	u, err := f.svc.DeliverableDownloadURL(context.Background(), captain(), sub.ID)
	if err != nil {
		t.Fatalf("download url: %v", err)
	}
	if u == "" {
		t.Fatal("empty download url")
	}
	if _, err := f.svc.DeliverableDownloadURL(context.Background(), actor, sub.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("assignee download: expected ErrUnauthorized, got %v", err)
	}
}

func TestDeliverableStoreUnconfigured(t *testing.T) {
	f := newTicketFixture(t)
	assignee := uint(2)
	tk := f.seedTicket(t, &assignee)
	svc := NewTicketService(f.projects, f.tickets, nil)

	if _, err := svc.RequestDeliverableUpload(context.Background(), plainMember(2), tk.ID, "report.pdf", "application/pdf", 1024); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}
