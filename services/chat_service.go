package services

import (
	"batepapo/domain"
	"batepapo/errors"
	"batepapo/observability"
	"batepapo/repositories"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type IChatService interface {
	Join(ctx context.Context, cmd domain.JoinCommand) (domain.Participant, domain.Message, error)
	Heartbeat(ctx context.Context, name string) error
	Leave(ctx context.Context, name string) error
	ListParticipants(ctx context.Context) ([]domain.Participant, error)
	PostMessage(ctx context.Context, cmd domain.PostMessageCommand) (domain.Message, error)
	ListMessages(ctx context.Context, filter domain.Filter) ([]domain.Message, error)
	EditMessage(ctx context.Context, id uuid.UUID, actor string, patch domain.Patch) (domain.Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID, actor string) error
}

// ChatService ties the registry, the log and the policy together. It is
// safe for concurrent callers; the repositories carry the atomicity.
type ChatService struct {
	log          *slog.Logger
	participants repositories.IParticipantRepository
	messages     repositories.IMessageRepository
	metrics      *observability.Metrics
}

func NewChatService(
	log *slog.Logger,
	participants repositories.IParticipantRepository,
	messages repositories.IMessageRepository,
	metrics *observability.Metrics,
) *ChatService {
	return &ChatService{
		log:          log,
		participants: participants,
		messages:     messages,
		metrics:      metrics,
	}
}

// Join registers the name and appends the "entered" room notice. The
// insert is the atomic step; the notice is a second write on the same
// logical boundary, like the departure notice the reaper emits.
func (s *ChatService) Join(_ context.Context, cmd domain.JoinCommand) (domain.Participant, domain.Message, error) {
	if err := domain.ValidateJoin(cmd); err != nil {
		return domain.Participant{}, domain.Message{}, err
	}
	participant, err := s.participants.Join(cmd.Name, time.Now())
	if err != nil {
		return domain.Participant{}, domain.Message{}, err
	}
	notice, err := s.messages.Append(domain.EnteredStatus(cmd.Name), time.Now())
	if err != nil {
		return domain.Participant{}, domain.Message{}, err
	}
	s.metrics.ParticipantsJoined.Inc()
	s.log.Info("Participant joined", "name", cmd.Name)
	return participant, notice, nil
}

func (s *ChatService) Heartbeat(_ context.Context, name string) error {
	return s.participants.Heartbeat(name, time.Now())
}

// Leave removes the participant and appends the departure notice. The
// remove-reports-removal contract is the same one the reaper relies on,
// so an explicit leave racing an eviction still yields one notice.
func (s *ChatService) Leave(_ context.Context, name string) error {
	removed, err := s.participants.Remove(name)
	if err != nil {
		return err
	}
	if !removed {
		return errors.ErrNotFound
	}
	if _, err := s.messages.Append(domain.LeftStatus(name), time.Now()); err != nil {
		return err
	}
	s.log.Info("Participant left", "name", name)
	return nil
}

func (s *ChatService) ListParticipants(_ context.Context) ([]domain.Participant, error) {
	return s.participants.List()
}

// PostMessage appends a client-authored message. The author must be
// present at creation time; the rule is not re-checked afterwards.
func (s *ChatService) PostMessage(_ context.Context, cmd domain.PostMessageCommand) (domain.Message, error) {
	if err := domain.ValidatePost(cmd); err != nil {
		return domain.Message{}, err
	}
	present, err := s.participants.Present(cmd.From)
	if err != nil {
		return domain.Message{}, err
	}
	if !present {
		return domain.Message{}, errors.ErrNotFound
	}
	msg, err := s.messages.Append(domain.Draft{
		From: cmd.From,
		To:   cmd.To,
		Text: cmd.Text,
		Kind: cmd.Kind,
	}, time.Now())
	if err != nil {
		return domain.Message{}, err
	}
	s.metrics.MessagesPosted.Inc()
	return msg, nil
}

func (s *ChatService) ListMessages(_ context.Context, filter domain.Filter) ([]domain.Message, error) {
	return s.messages.List(filter)
}

func (s *ChatService) EditMessage(_ context.Context, id uuid.UUID, actor string, patch domain.Patch) (domain.Message, error) {
	return s.messages.Edit(id, actor, patch)
}

func (s *ChatService) DeleteMessage(_ context.Context, id uuid.UUID, actor string) error {
	return s.messages.Delete(id, actor)
}
