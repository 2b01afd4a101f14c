package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/conny0506/jira-lite/internal/domain"
	"github.com/conny0506/jira-lite/internal/observability"
	"github.com/conny0506/jira-lite/internal/repository"
	"github.com/conny0506/jira-lite/internal/security"
)

// ClientMeta is best-effort audit metadata captured at login and refresh.
type ClientMeta struct {
	IP        string
	UserAgent string
}

type LoginResult struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         string
	Member               *domain.Member
}

type AuthConfig struct {
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	PasswordResetTTL  time.Duration
	OneSessionPerUser bool
	RefreshPepper     string
	ResetBaseURL      string
}

type AuthService struct {
	members  repository.MemberRepository
	sessions repository.SessionRepository
	atomic   repository.Atomic
	codec    *security.TokenCodec
	mailer   Mailer
	logger   *slog.Logger
	cfg      AuthConfig
}

func NewAuthService(
	members repository.MemberRepository,
	sessions repository.SessionRepository,
	atomic repository.Atomic,
	codec *security.TokenCodec,
	mailer Mailer,
	logger *slog.Logger,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		members:  members,
		sessions: sessions,
		atomic:   atomic,
		codec:    codec,
		mailer:   mailer,
		logger:   logger,
		cfg:      cfg,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies credentials and opens a new session. Member-absent,
// member-inactive and password-mismatch all return the same ErrUnauthorized
// so the response cannot be used for account enumeration.
func (s *AuthService) Login(ctx context.Context, email, password string, meta ClientMeta) (*LoginResult, error) {
	member, err := s.members.FindByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			observability.RecordAuthOperation(ctx, "login", "unauthorized")
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !member.Active {
		observability.RecordAuthOperation(ctx, "login", "unauthorized")
		return nil, ErrUnauthorized
	}

	ok, err := security.VerifyPassword(member.PasswordHash, password)
	if err != nil || !ok {
		observability.RecordAuthOperation(ctx, "login", "unauthorized")
		return nil, ErrUnauthorized
	}

	if security.NeedsRehash(member.PasswordHash) {
		if newHash, hashErr := security.HashPassword(password); hashErr == nil {
			if err := s.members.UpdatePasswordHash(member.ID, newHash); err != nil {
				s.logger.WarnContext(ctx, "legacy hash migration failed", "member_id", member.ID, "error", err)
			} else {
				member.PasswordHash = newHash
			}
		}
	}

	if s.cfg.OneSessionPerUser {
		if _, err := s.sessions.RevokeByMemberID(member.ID, "new_login"); err != nil {
			return nil, err
		}
	}

	result, err := s.openSession(ctx, member, meta)
	if err != nil {
		return nil, err
	}

	// Audit write is best effort: its failure is logged, never surfaced.
	if err := s.members.RecordLogin(member.ID, meta.IP, meta.UserAgent, time.Now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "login audit write failed", "member_id", member.ID, "error", err)
	}

	observability.RecordAuthOperation(ctx, "login", "success")
	return result, nil
}

// Refresh redeems a refresh secret for a new token pair. The session is
// rotated in place, so the presented secret is unusable the moment this
// returns.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, ErrUnauthorized
	}
	hash := security.HashOpaqueSecret(refreshToken, s.cfg.RefreshPepper)
	session, err := s.sessions.FindByHash(hash)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordAuthOperation(ctx, "refresh", "unauthorized")
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !session.Usable(time.Now()) {
		observability.RecordAuthOperation(ctx, "refresh", "unauthorized")
		return nil, ErrUnauthorized
	}

	member, err := s.members.FindByID(session.MemberID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !member.Active {
		observability.RecordAuthOperation(ctx, "refresh", "unauthorized")
		return nil, ErrUnauthorized
	}

	newSecret, err := security.NewOpaqueSecret()
	if err != nil {
		return nil, err
	}
	newHash := security.HashOpaqueSecret(newSecret, s.cfg.RefreshPepper)
	if _, err := s.sessions.Rotate(hash, newHash, time.Now().Add(s.cfg.RefreshTokenTTL)); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordAuthOperation(ctx, "refresh", "unauthorized")
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	access, expiresAt, err := s.codec.Sign(member.ID, string(member.Role), s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	observability.RecordAuthOperation(ctx, "refresh", "success")
	return &LoginResult{
		AccessToken:          access,
		AccessTokenExpiresAt: expiresAt,
		RefreshToken:         newSecret,
		Member:               member,
	}, nil
}

// Logout revokes the session matching the presented secret. Idempotent: an
// unknown or already-revoked token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	hash := security.HashOpaqueSecret(refreshToken, s.cfg.RefreshPepper)
	if _, err := s.sessions.RevokeByHash(hash, "logout"); err != nil {
		return err
	}
	observability.RecordAuthOperation(ctx, "logout", "success")
	return nil
}

// ChangePassword swaps the stored hash and forces re-authentication
// everywhere: password update, reset-token clear and session revocation
// commit together or not at all.
func (s *AuthService) ChangePassword(ctx context.Context, memberID uint, currentPassword, newPassword string) error {
	member, err := s.members.FindByID(memberID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return ErrUnauthorized
		}
		return err
	}

	ok, err := security.VerifyPassword(member.PasswordHash, currentPassword)
	if err != nil || !ok {
		observability.RecordAuthOperation(ctx, "change_password", "unauthorized")
		return ErrUnauthorized
	}
	if newPassword == currentPassword {
		return badRequest("new password must differ from the current password")
	}
	if err := validateNewPassword(newPassword); err != nil {
		return err
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.atomic.Transaction(func(members repository.MemberRepository, sessions repository.SessionRepository) error {
		if err := members.UpdatePasswordHash(member.ID, newHash); err != nil {
			return err
		}
		if err := members.ClearResetToken(member.ID); err != nil {
			return err
		}
		_, err := sessions.RevokeByMemberID(member.ID, "password_changed")
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordAuthOperation(ctx, "change_password", "success")
	return nil
}

// ForgotPassword always behaves identically toward the caller whether the
// email exists or not. The only surfaced failure is email dispatch, because
// the user must know the link is not coming.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	member, err := s.members.FindByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			observability.RecordAuthOperation(ctx, "forgot_password", "unknown_email")
			return nil
		}
		return err
	}
	if !member.Active {
		observability.RecordAuthOperation(ctx, "forgot_password", "inactive")
		return nil
	}

	secret, err := security.NewOpaqueSecret()
	if err != nil {
		return err
	}
	hash := security.HashOpaqueSecret(secret, s.cfg.RefreshPepper)
	expiresAt := time.Now().Add(s.cfg.PasswordResetTTL).UTC()
	if err := s.members.SetResetToken(member.ID, hash, expiresAt); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.ResetBaseURL, "/"), secret)
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\nReset link (valid for %d minutes):\n%s\n\nIf you did not request this, ignore this mail.",
		int(s.cfg.PasswordResetTTL.Minutes()), link,
	)
	if err := s.mailer.Send(ctx, member.Email, "Reset your password", body); err != nil {
		observability.RecordAuthOperation(ctx, "forgot_password", "mail_error")
		return serviceUnavailable("reset email could not be sent")
	}

	observability.RecordAuthOperation(ctx, "forgot_password", "success")
	return nil
}

// ResetPassword redeems a reset link. Any failure is the same generic
// BadRequest; new password, cleared token and session revocation commit as
// one unit.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	linkInvalid := badRequest("link invalid or expired")
	if token == "" {
		return linkInvalid
	}
	if err := validateNewPassword(newPassword); err != nil {
		return err
	}

	hash := security.HashOpaqueSecret(token, s.cfg.RefreshPepper)
	member, err := s.members.FindByResetTokenHash(hash)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			observability.RecordAuthOperation(ctx, "reset_password", "invalid_link")
			return linkInvalid
		}
		return err
	}
	if !member.Active || member.ResetTokenExpiresAt == nil || !member.ResetTokenExpiresAt.After(time.Now()) {
		observability.RecordAuthOperation(ctx, "reset_password", "invalid_link")
		return linkInvalid
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.atomic.Transaction(func(members repository.MemberRepository, sessions repository.SessionRepository) error {
		if err := members.UpdatePasswordHash(member.ID, newHash); err != nil {
			return err
		}
		if err := members.ClearResetToken(member.ID); err != nil {
			return err
		}
		_, err := sessions.RevokeByMemberID(member.ID, "password_reset")
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordAuthOperation(ctx, "reset_password", "success")
	return nil
}

// Member loads the current actor for /auth/me.
func (s *AuthService) Member(ctx context.Context, id uint) (*domain.Member, error) {
	member, err := s.members.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return member, nil
}

func (s *AuthService) openSession(ctx context.Context, member *domain.Member, meta ClientMeta) (*LoginResult, error) {
	secret, err := security.NewOpaqueSecret()
	if err != nil {
		return nil, err
	}
	session := &domain.Session{
		MemberID:         member.ID,
		RefreshTokenHash: security.HashOpaqueSecret(secret, s.cfg.RefreshPepper),
		UserAgent:        meta.UserAgent,
		IP:               meta.IP,
		ExpiresAt:        time.Now().Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	access, expiresAt, err := s.codec.Sign(member.ID, string(member.Role), s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:          access,
		AccessTokenExpiresAt: expiresAt,
		RefreshToken:         secret,
		Member:               member,
	}, nil
}

func validateNewPassword(password string) error {
	if len(password) < 8 {
		return badRequest("password must be at least 8 characters")
	}
	return nil
}
