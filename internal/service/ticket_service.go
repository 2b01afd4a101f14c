package service

import (
	"context"
	"errors"
	"time"

	"github.com/conny0506/jira-lite/internal/domain"
	"github.com/conny0506/jira-lite/internal/repository"
	"github.com/conny0506/jira-lite/internal/storage"
)

// DeliverableStore is the slice of the object store the ticket flow needs.
type DeliverableStore interface {
	DeliverableUploadURL(ctx context.Context, ticketID uint, fileName, contentType string, sizeBytes int64) (*storage.UploadInfo, error)
	ConfirmDeliverable(ctx context.Context, ticketID uint, key string) (int64, error)
	DeliverableDownloadURL(ctx context.Context, key, fileName string) (string, error)
}

type TicketService struct {
	projects     repository.ProjectRepository
	tickets      repository.TicketRepository
	deliverables DeliverableStore
}

func NewTicketService(projects repository.ProjectRepository, tickets repository.TicketRepository, deliverables DeliverableStore) *TicketService {
	return &TicketService{projects: projects, tickets: tickets, deliverables: deliverables}
}

func (s *TicketService) CreateProject(_ context.Context, actor *domain.Member, name, description string) (*domain.Project, error) {
	if actor.Role != domain.RoleCaptain {
		return nil, ErrUnauthorized
	}
	if name == "" {
		return nil, badRequest("project name is required")
	}
	p := &domain.Project{Name: name, Description: description, CreatedBy: actor.ID}
	if err := s.projects.Create(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *TicketService) ListProjects(context.Context) ([]domain.Project, error) {
	return s.projects.List()
}

type CreateTicketInput struct {
	ProjectID   uint
	Title       string
	Description string
	AssigneeID  *uint
	DueAt       *time.Time
}

func (s *TicketService) CreateTicket(_ context.Context, actor *domain.Member, in CreateTicketInput) (*domain.Ticket, error) {
	if actor.Role != domain.RoleCaptain {
		return nil, ErrUnauthorized
	}
	if in.Title == "" {
		return nil, badRequest("ticket title is required")
	}
	if _, err := s.projects.FindByID(in.ProjectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, badRequest("project does not exist")
		}
		return nil, err
	}
	t := &domain.Ticket{
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      domain.TicketOpen,
		AssigneeID:  in.AssigneeID,
		CreatedBy:   actor.ID,
		DueAt:       in.DueAt,
	}
	if in.AssigneeID != nil {
		t.Status = domain.TicketInProgress
	}
	if err := s.tickets.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TicketService) AssignTicket(_ context.Context, actor *domain.Member, ticketID, assigneeID uint) (*domain.Ticket, error) {
	if actor.Role != domain.RoleCaptain {
		return nil, ErrUnauthorized
	}
	t, err := s.tickets.FindByID(ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, badRequest("ticket does not exist")
		}
		return nil, err
	}
	t.AssigneeID = &assigneeID
	if t.Status == domain.TicketOpen {
		t.Status = domain.TicketInProgress
	}
	if err := s.tickets.Update(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TicketService) Ticket(_ context.Context, id uint) (*domain.Ticket, error) {
	t, err := s.tickets.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, badRequest("ticket does not exist")
		}
		return nil, err
	}
	return t, nil
}

func (s *TicketService) ListByProject(_ context.Context, projectID uint) ([]domain.Ticket, error) {
	return s.tickets.ListByProject(projectID)
}

func (s *TicketService) ListMine(_ context.Context, actor *domain.Member) ([]domain.Ticket, error) {
	return s.tickets.ListByAssignee(actor.ID)
}

// RequestDeliverableUpload presigns an upload slot. Only the assignee may
// hand in work against a ticket.
func (s *TicketService) RequestDeliverableUpload(ctx context.Context, actor *domain.Member, ticketID uint, fileName, contentType string, sizeBytes int64) (*storage.UploadInfo, error) {
	if s.deliverables == nil {
		return nil, serviceUnavailable("deliverable store not configured")
	}
	t, err := s.assignedTicket(actor, ticketID)
	if err != nil {
		return nil, err
	}
	info, err := s.deliverables.DeliverableUploadURL(ctx, t.ID, fileName, contentType, sizeBytes)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidUpload) {
			return nil, badRequest("invalid upload parameters")
		}
		return nil, serviceUnavailable("deliverable store unavailable")
	}
	return info, nil
}

// SubmitDeliverable confirms the uploaded object exists and records the
// submission; the ticket moves to SUBMITTED.
func (s *TicketService) SubmitDeliverable(ctx context.Context, actor *domain.Member, ticketID uint, objectKey, fileName, contentType string) (*domain.Submission, error) {
	if s.deliverables == nil {
		return nil, serviceUnavailable("deliverable store not configured")
	}
	t, err := s.assignedTicket(actor, ticketID)
	if err != nil {
		return nil, err
	}
	size, err := s.deliverables.ConfirmDeliverable(ctx, t.ID, objectKey)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidUpload):
			return nil, badRequest("object key does not belong to this ticket")
		case errors.Is(err, storage.ErrDeliverableMissing):
			return nil, badRequest("deliverable was not uploaded")
		default:
			return nil, serviceUnavailable("deliverable store unavailable")
		}
	}
	sub := &domain.Submission{
		TicketID:    t.ID,
		MemberID:    actor.ID,
		ObjectKey:   objectKey,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
	}
	if err := s.tickets.AddSubmission(sub); err != nil {
		return nil, err
	}
	t.Status = domain.TicketSubmitted
	if err := s.tickets.Update(t); err != nil {
		return nil, err
	}
	return sub, nil
}

// ReviewSubmission approves or rejects a submitted deliverable. Approval
// closes the ticket; rejection sends it back to IN_PROGRESS.
func (s *TicketService) ReviewSubmission(_ context.Context, actor *domain.Member, submissionID uint, approved bool, comment string) (*domain.Submission, error) {
	if actor.Role != domain.RoleCaptain {
		return nil, ErrUnauthorized
	}
	sub, err := s.tickets.FindSubmission(submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, badRequest("submission does not exist")
		}
		return nil, err
	}
	if sub.ReviewedAt != nil {
		return nil, badRequest("submission already reviewed")
	}
	now := time.Now().UTC()
	sub.ReviewedBy = &actor.ID
	sub.ReviewedAt = &now
	sub.ReviewComment = comment
	sub.Approved = &approved
	if err := s.tickets.UpdateSubmission(sub); err != nil {
		return nil, err
	}

	t, err := s.tickets.FindByID(sub.TicketID)
	if err != nil {
		return nil, err
	}
	if approved {
		t.Status = domain.TicketApproved
	} else {
		t.Status = domain.TicketRejected
	}
	if err := s.tickets.Update(t); err != nil {
		return nil, err
	}
	return sub, nil
}

// DeliverableDownloadURL presigns a review download for captains.
func (s *TicketService) DeliverableDownloadURL(ctx context.Context, actor *domain.Member, submissionID uint) (string, error) {
	if actor.Role != domain.RoleCaptain {
		return "", ErrUnauthorized
	}
	if s.deliverables == nil {
		return "", serviceUnavailable("deliverable store not configured")
	}
	sub, err := s.tickets.FindSubmission(submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return "", badRequest("submission does not exist")
		}
		return "", err
	}
	u, err := s.deliverables.DeliverableDownloadURL(ctx, sub.ObjectKey, sub.FileName)
	if err != nil {
		return "", serviceUnavailable("deliverable store unavailable")
	}
	return u, nil
}

func (s *TicketService) assignedTicket(actor *domain.Member, ticketID uint) (*domain.Ticket, error) {
	t, err := s.tickets.FindByID(ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, badRequest("ticket does not exist")
		}
		return nil, err
	}
	if t.AssigneeID == nil || *t.AssigneeID != actor.ID {
		return nil, ErrUnauthorized
	}
	return t, nil
}
