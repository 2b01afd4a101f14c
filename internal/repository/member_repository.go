package repository

import (
	"context"
	"errors"
	"time"

	"github.com/conny0506/jira-lite/internal/domain"
	"github.com/conny0506/jira-lite/internal/observability"

	"gorm.io/gorm"
)

var ErrMemberNotFound = errors.New("member not found")

type MemberRepository interface {
	FindByID(id uint) (*domain.Member, error)
	FindByEmail(email string) (*domain.Member, error)
	FindByResetTokenHash(hash string) (*domain.Member, error)
	Create(m *domain.Member) error
	UpdatePasswordHash(id uint, hash string) error
	SetResetToken(id uint, hash string, expiresAt time.Time) error
	ClearResetToken(id uint) error
	RecordLogin(id uint, ip, userAgent string, at time.Time) error
	ListActiveEmails() ([]string, error)
}

type GormMemberRepository struct{ db *gorm.DB }

func NewMemberRepository(db *gorm.DB) MemberRepository { return &GormMemberRepository{db: db} }

func (r *GormMemberRepository) FindByID(id uint) (*domain.Member, error) {
	var m domain.Member
	err := r.db.First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "member", "find_by_id", "not_found")
			return nil, ErrMemberNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "member", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "member", "find_by_id", "success")
	return &m, nil
}

func (r *GormMemberRepository) FindByEmail(email string) (*domain.Member, error) {
	var m domain.Member
	err := r.db.Where("email = ?", email).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "member", "find_by_email", "not_found")
			return nil, ErrMemberNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "member", "find_by_email", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "member", "find_by_email", "success")
	return &m, nil
}

func (r *GormMemberRepository) FindByResetTokenHash(hash string) (*domain.Member, error) {
	var m domain.Member
	err := r.db.Where("reset_token_hash = ?", hash).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "member", "find_by_reset_token_hash", "not_found")
			return nil, ErrMemberNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "member", "find_by_reset_token_hash", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "member", "find_by_reset_token_hash", "success")
	return &m, nil
}

func (r *GormMemberRepository) Create(m *domain.Member) error {
	err := r.db.Create(m).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "member", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "member", "create", "success")
	return nil
}

func (r *GormMemberRepository) UpdatePasswordHash(id uint, hash string) error {
	err := r.db.Model(&domain.Member{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "member", "update_password_hash", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "member", "update_password_hash", "success")
	return nil
}

func (r *GormMemberRepository) SetResetToken(id uint, hash string, expiresAt time.Time) error {
	err := r.db.Model(&domain.Member{}).
		Where("id = ?", id).
		Updates(map[string]any{"reset_token_hash": hash, "reset_token_expires_at": expiresAt}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "member", "set_reset_token", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "member", "set_reset_token", "success")
	return nil
}

func (r *GormMemberRepository) ClearResetToken(id uint) error {
	err := r.db.Model(&domain.Member{}).
		Where("id = ?", id).
		Updates(map[string]any{"reset_token_hash": nil, "reset_token_expires_at": nil}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "member", "clear_reset_token", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "member", "clear_reset_token", "success")
	return nil
}

func (r *GormMemberRepository) RecordLogin(id uint, ip, userAgent string, at time.Time) error {
	err := r.db.Model(&domain.Member{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_login_at":         at,
			"last_login_ip":         ip,
			"last_login_user_agent": userAgent,
		}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "member", "record_login", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "member", "record_login", "success")
	return nil
}

func (r *GormMemberRepository) ListActiveEmails() ([]string, error) {
	var emails []string
	err := r.db.Model(&domain.Member{}).
		Where("active = ?", true).
		Pluck("email", &emails).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "member", "list_active_emails", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "member", "list_active_emails", "success")
	return emails, nil
}
