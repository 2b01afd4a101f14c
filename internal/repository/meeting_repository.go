package repository

import (
	"context"
	"errors"
	"time"

	"github.com/conny0506/jira-lite/internal/domain"
	"github.com/conny0506/jira-lite/internal/observability"

	"gorm.io/gorm"
)

var ErrMeetingNotFound = errors.New("meeting not found")

type MeetingRepository interface {
	Create(m *domain.Meeting) error
	FindByID(id uint) (*domain.Meeting, error)
	ListUpcoming(from time.Time) ([]domain.Meeting, error)
	// ListDueForReminder returns meetings starting inside (now, now+lead]
	// whose reminder has not been sent yet.
	ListDueForReminder(now time.Time, lead time.Duration) ([]domain.Meeting, error)
	MarkReminderSent(id uint, at time.Time) error
	Delete(id uint) error
}

type GormMeetingRepository struct{ db *gorm.DB }

func NewMeetingRepository(db *gorm.DB) MeetingRepository { return &GormMeetingRepository{db: db} }

func (r *GormMeetingRepository) Create(m *domain.Meeting) error {
	err := r.db.Create(m).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "meeting", "create", outcome)
	return err
}

func (r *GormMeetingRepository) FindByID(id uint) (*domain.Meeting, error) {
	var m domain.Meeting
	err := r.db.First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "meeting", "find_by_id", "not_found")
			return nil, ErrMeetingNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "meeting", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "meeting", "find_by_id", "success")
	return &m, nil
}

func (r *GormMeetingRepository) ListUpcoming(from time.Time) ([]domain.Meeting, error) {
	var meetings []domain.Meeting
	err := r.db.Where("starts_at > ?", from).Order("starts_at ASC").Find(&meetings).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "meeting", "list_upcoming", outcome)
	return meetings, err
}

func (r *GormMeetingRepository) ListDueForReminder(now time.Time, lead time.Duration) ([]domain.Meeting, error) {
	var meetings []domain.Meeting
	err := r.db.
		Where("starts_at > ? AND starts_at <= ? AND reminder_sent_at IS NULL", now, now.Add(lead)).
		Order("starts_at ASC").
		Find(&meetings).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "meeting", "list_due_for_reminder", outcome)
	return meetings, err
}

func (r *GormMeetingRepository) MarkReminderSent(id uint, at time.Time) error {
	err := r.db.Model(&domain.Meeting{}).
		Where("id = ? AND reminder_sent_at IS NULL", id).
		Update("reminder_sent_at", at).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "meeting", "mark_reminder_sent", outcome)
	return err
}

func (r *GormMeetingRepository) Delete(id uint) error {
	err := r.db.Delete(&domain.Meeting{}, id).Error
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "meeting", "delete", outcome)
	return err
}
