package repository

import (
	"context"
	"errors"
	"time"

	"github.com/conny0506/jira-lite/internal/domain"
	"github.com/conny0506/jira-lite/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTicketNotFound  = errors.New("ticket not found")
)

type ProjectRepository interface {
	Create(p *domain.Project) error
	FindByID(id uint) (*domain.Project, error)
	List() ([]domain.Project, error)
	Update(p *domain.Project) error
	Delete(id uint) error
}

type TicketRepository interface {
	Create(t *domain.Ticket) error
	FindByID(id uint) (*domain.Ticket, error)
	ListByProject(projectID uint) ([]domain.Ticket, error)
	ListByAssignee(memberID uint) ([]domain.Ticket, error)
	Update(t *domain.Ticket) error
	AddSubmission(sub *domain.Submission) error
	UpdateSubmission(sub *domain.Submission) error
	FindSubmission(id uint) (*domain.Submission, error)
}

type GormProjectRepository struct{ db *gorm.DB }

func NewProjectRepository(db *gorm.DB) ProjectRepository { return &GormProjectRepository{db: db} }

func (r *GormProjectRepository) Create(p *domain.Project) error {
	err := r.db.Create(p).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "project", "create", outcome)
	return err
}

func (r *GormProjectRepository) FindByID(id uint) (*domain.Project, error) {
	var p domain.Project
	err := r.db.First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "project", "find_by_id", "not_found")
			return nil, ErrProjectNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "project", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "project", "find_by_id", "success")
	return &p, nil
}

func (r *GormProjectRepository) List() ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.Order("created_at DESC").Find(&projects).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "project", "list", outcome)
	return projects, err
}

func (r *GormProjectRepository) Update(p *domain.Project) error {
	err := r.db.Save(p).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "project", "update", outcome)
	return err
}

func (r *GormProjectRepository) Delete(id uint) error {
	err := r.db.Delete(&domain.Project{}, id).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "project", "delete", outcome)
	return err
}

type GormTicketRepository struct{ db *gorm.DB }

func NewTicketRepository(db *gorm.DB) TicketRepository { return &GormTicketRepository{db: db} }

func (r *GormTicketRepository) Create(t *domain.Ticket) error {
	err := r.db.Create(t).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "ticket", "create", outcome)
	return err
}

func (r *GormTicketRepository) FindByID(id uint) (*domain.Ticket, error) {
	var t domain.Ticket
	err := r.db.Preload("Submissions").First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "ticket", "find_by_id", "not_found")
			return nil, ErrTicketNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "ticket", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "ticket", "find_by_id", "success")
	return &t, nil
}

func (r *GormTicketRepository) ListByProject(projectID uint) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := r.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&tickets).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "ticket", "list_by_project", outcome)
	return tickets, err
}

func (r *GormTicketRepository) ListByAssignee(memberID uint) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := r.db.Where("assignee_id = ?", memberID).Order("due_at ASC").Find(&tickets).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "ticket", "list_by_assignee", outcome)
	return tickets, err
}

func (r *GormTicketRepository) Update(t *domain.Ticket) error {
	t.UpdatedAt = time.Now().UTC()
	err := r.db.Omit("Submissions").Save(t).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "ticket", "update", outcome)
	return err
}

func (r *GormTicketRepository) AddSubmission(sub *domain.Submission) error {
	err := r.db.Create(sub).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "submission", "create", outcome)
	return err
}

func (r *GormTicketRepository) UpdateSubmission(sub *domain.Submission) error {
	err := r.db.Save(sub).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "submission", "update", outcome)
	return err
}

func (r *GormTicketRepository) FindSubmission(id uint) (*domain.Submission, error) {
	var sub domain.Submission
	err := r.db.First(&sub, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "submission", "find_by_id", "not_found")
			return nil, ErrTicketNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "submission", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "submission", "find_by_id", "success")
	return &sub, nil
}
