package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conny0506/jira-lite/internal/domain"
	"github.com/conny0506/jira-lite/internal/observability"
	"github.com/conny0506/jira-lite/internal/repository"
)

type MeetingService struct {
	meetings repository.MeetingRepository
	members  repository.MemberRepository
	mailer   Mailer
	logger   *slog.Logger
	lead     time.Duration
}

func NewMeetingService(meetings repository.MeetingRepository, members repository.MemberRepository, mailer Mailer, logger *slog.Logger, lead time.Duration) *MeetingService {
	return &MeetingService{meetings: meetings, members: members, mailer: mailer, logger: logger, lead: lead}
}

type CreateMeetingInput struct {
	Title    string
	Agenda   string
	Location string
	StartsAt time.Time
}

func (s *MeetingService) CreateMeeting(_ context.Context, actor *domain.Member, in CreateMeetingInput) (*domain.Meeting, error) {
	if actor.Role != domain.RoleCaptain && actor.Role != domain.RoleBoard {
		return nil, ErrUnauthorized
	}
	if in.Title == "" {
		return nil, badRequest("meeting title is required")
	}
	if !in.StartsAt.After(time.Now()) {
		return nil, badRequest("meeting must start in the future")
	}
	m := &domain.Meeting{
		Title:     in.Title,
		Agenda:    in.Agenda,
		Location:  in.Location,
		StartsAt:  in.StartsAt.UTC(),
		CreatedBy: actor.ID,
	}
	if err := s.meetings.Create(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MeetingService) ListUpcoming(context.Context) ([]domain.Meeting, error) {
	return s.meetings.ListUpcoming(time.Now())
}

func (s *MeetingService) DeleteMeeting(_ context.Context, actor *domain.Member, id uint) error {
	if actor.Role != domain.RoleCaptain && actor.Role != domain.RoleBoard {
		return ErrUnauthorized
	}
	if _, err := s.meetings.FindByID(id); err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return badRequest("meeting does not exist")
		}
		return err
	}
	return s.meetings.Delete(id)
}

// SweepReminders sends reminder mail for meetings starting within the lead
// window and marks them sent. Individual mail failures are logged and
// counted but never abort the sweep; the meeting is only marked sent when at
// least one recipient got the mail.
func (s *MeetingService) SweepReminders(ctx context.Context) error {
	due, err := s.meetings.ListDueForReminder(time.Now(), s.lead)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}
	emails, err := s.members.ListActiveEmails()
	if err != nil {
		return err
	}

	for _, meeting := range due {
		sent := 0
		body := fmt.Sprintf(
			"Reminder: %q starts at %s.\nLocation: %s\n\nAgenda:\n%s\n",
			meeting.Title, meeting.StartsAt.Format(time.RFC1123), meeting.Location, meeting.Agenda,
		)
		for _, to := range emails {
			if err := s.mailer.Send(ctx, to, "Meeting reminder: "+meeting.Title, body); err != nil {
				observability.RecordReminderDispatch(ctx, "error")
				s.logger.WarnContext(ctx, "reminder mail failed", "meeting_id", meeting.ID, "recipient", to, "error", err)
				continue
			}
			observability.RecordReminderDispatch(ctx, "success")
			sent++
		}
		if sent > 0 {
			if err := s.meetings.MarkReminderSent(meeting.ID, time.Now().UTC()); err != nil {
				s.logger.WarnContext(ctx, "mark reminder sent failed", "meeting_id", meeting.ID, "error", err)
			}
		}
	}
	return nil
}

// RunReminderLoop polls for due reminders until the context is cancelled.
func (s *MeetingService) RunReminderLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepReminders(ctx); err != nil {
				s.logger.WarnContext(ctx, "reminder sweep failed", "error", err)
			}
		}
	}
}
