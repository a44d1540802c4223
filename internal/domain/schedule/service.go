package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/turnoapp/turno/internal/domain/identity"
	"github.com/turnoapp/turno/internal/platform/apperr"
)

// ErrBlockOverlap is returned when an active block would share time with
// another active block of the same weekday.
var ErrBlockOverlap = fmt.Errorf("%w: schedule block overlaps an existing block", apperr.ErrValidation)

type ProfessionalLookup interface {
	GetProfessional(ctx context.Context, id uuid.UUID) (*identity.Professional, error)
}

type Service struct {
	repo          Repository
	professionals ProfessionalLookup
	locker        Locker
	logger        zerolog.Logger
}

func NewService(repo Repository, professionals ProfessionalLookup, locker Locker, logger zerolog.Logger) *Service {
	return &Service{repo: repo, professionals: professionals, locker: locker, logger: logger}
}

// checkOverlap must run under the weekday lock.
func (s *Service) checkOverlap(ctx context.Context, b *Block) error {
	found, err := s.repo.FindOverlapping(ctx, b.ProfessionalID, b.DayOfWeek, b.StartTime, b.EndTime, b.ID)
	if err != nil {
		return err
	}
	if len(found) > 0 {
		return fmt.Errorf("%w (%s-%s)", ErrBlockOverlap, found[0].StartTime, found[0].EndTime)
	}
	return nil
}

func (s *Service) CreateBlock(ctx context.Context, professionalID uuid.UUID, b *Block) error {
	if _, err := s.professionals.GetProfessional(ctx, professionalID); err != nil {
		return err
	}
	b.ID = uuid.Nil
	b.ProfessionalID = professionalID
	b.Active = true
	if err := b.Validate(); err != nil {
		return err
	}
	err := s.locker.WithinWeekday(ctx, professionalID, b.DayOfWeek, func(ctx context.Context) error {
		if err := s.checkOverlap(ctx, b); err != nil {
			return err
		}
		return s.repo.Create(ctx, b)
	})
	if err != nil {
		return err
	}
	s.logger.Info().
		Str("block_id", b.ID.String()).
		Str("professional_id", professionalID.String()).
		Int("day_of_week", b.DayOfWeek).
		Str("start", b.StartTime.String()).
		Str("end", b.EndTime.String()).
		Msg("schedule block created")
	return nil
}

func (s *Service) own(ctx context.Context, id, professionalID uuid.UUID) (*Block, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ProfessionalID != professionalID {
		return nil, apperr.NotFound("schedule block")
	}
	return b, nil
}

func (s *Service) GetBlock(ctx context.Context, id, professionalID uuid.UUID) (*Block, error) {
	return s.own(ctx, id, professionalID)
}

// UpdateBlock applies a partial update. The overlap check runs when the
// resulting block is active and either its times changed or it was just
// re-activated.
func (s *Service) UpdateBlock(ctx context.Context, id, professionalID uuid.UUID, p Patch) (*Block, error) {
	before, err := s.own(ctx, id, professionalID)
	if err != nil {
		return nil, err
	}
	var b *Block
	err = s.locker.WithinWeekday(ctx, professionalID, before.DayOfWeek, func(ctx context.Context) error {
		cur, err := s.own(ctx, id, professionalID)
		if err != nil {
			return err
		}
		wasActive, oldIv := cur.Active, cur.Interval()
		p.Apply(cur)
		if err := cur.Validate(); err != nil {
			return err
		}
		if cur.Active && (!wasActive || cur.Interval() != oldIv) {
			if err := s.checkOverlap(ctx, cur); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, cur); err != nil {
			return err
		}
		b = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) DeleteBlock(ctx context.Context, id, professionalID uuid.UUID) error {
	if _, err := s.own(ctx, id, professionalID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("block_id", id.String()).Msg("schedule block deleted")
	return nil
}

func (s *Service) ListBlocks(ctx context.Context, professionalID uuid.UUID) ([]*Block, error) {
	return s.repo.ListByProfessional(ctx, professionalID)
}

// ActiveBlocks returns the active blocks of one weekday ordered by start.
func (s *Service) ActiveBlocks(ctx context.Context, professionalID uuid.UUID, day int) ([]*Block, error) {
	return s.repo.ListActiveByDay(ctx, professionalID, day)
}

// WeeklySchedule returns all active blocks keyed by weekday.
func (s *Service) WeeklySchedule(ctx context.Context, professionalID uuid.UUID) (map[int][]*Block, error) {
	blocks, err := s.repo.ListActive(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	week := make(map[int][]*Block, 7)
	for _, b := range blocks {
		week[b.DayOfWeek] = append(week[b.DayOfWeek], b)
	}
	return week, nil
}
