package occupancy_service

import (
	"context"
	"fmt"
	"time"

	"studio-desk/internal/cache"
	"studio-desk/internal/models"
	"studio-desk/internal/occupancy"
	"studio-desk/internal/repository"
	"studio-desk/internal/service"

	"go.uber.org/zap"
)

type occupancyService struct {
	sessionRepo    repository.SessionRepository
	personRepo     repository.PersonRepository
	attendanceRepo repository.AttendanceRepository
	spaceRepo      repository.SpaceRepository
	cache          cache.SnapshotCache
	logger         *zap.Logger
}

func NewOccupancyService(
	sessionRepo repository.SessionRepository,
	personRepo repository.PersonRepository,
	attendanceRepo repository.AttendanceRepository,
	spaceRepo repository.SpaceRepository,
	snapshots cache.SnapshotCache,
	logger *zap.Logger,
) service.OccupancyService {
	return &occupancyService{
		sessionRepo:    sessionRepo,
		personRepo:     personRepo,
		attendanceRepo: attendanceRepo,
		spaceRepo:      spaceRepo,
		cache:          snapshots,
		logger:         logger,
	}
}

func (s *occupancyService) Snapshot(ctx context.Context, sessionID string, date time.Time) (*occupancy.Snapshot, error) {
	dateKey := occupancy.DateKey(date)

	cached, err := s.cache.Get(ctx, sessionID, dateKey)
	if err != nil {
		s.logger.Warn("snapshot cache read failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, repository.ErrNotFound)
	}

	snap, err := s.Resolve(ctx, *session, date)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, snap); err != nil {
		s.logger.Warn("snapshot cache write failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return snap, nil
}

func (s *occupancyService) Resolve(ctx context.Context, session models.Session, date time.Time) (*occupancy.Snapshot, error) {
	people, err := s.personRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load people: %w", err)
	}

	record, err := s.attendanceRepo.Get(ctx, session.ID, occupancy.DateKey(date))
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	var records []models.AttendanceRecord
	if record != nil {
		records = append(records, *record)
	}

	space, err := s.spaceRepo.GetByID(ctx, session.SpaceID)
	if err != nil {
		return nil, fmt.Errorf("load space: %w", err)
	}

	snap := occupancy.Compute(occupancy.Input{
		Session: session,
		Date:    date,
		People:  people,
		Records: records,
		Space:   space,
	})
	return &snap, nil
}

// DailyOverview рассчитывает загрузку всех занятий дня
func (s *occupancyService) DailyOverview(ctx context.Context, date time.Time) (*service.DailyOverview, error) {
	dateKey := occupancy.DateKey(date)

	sessions, err := s.sessionRepo.ListByDay(ctx, models.WeekdayOf(date))
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	people, err := s.personRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load people: %w", err)
	}
	records, err := s.attendanceRepo.ListByDate(ctx, dateKey)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	spaces, err := s.spaceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load spaces: %w", err)
	}

	spaceByID := make(map[string]*models.Space, len(spaces))
	for i := range spaces {
		spaceByID[spaces[i].ID] = &spaces[i]
	}

	overview := &service.DailyOverview{
		Date:     dateKey,
		Sessions: make([]occupancy.Snapshot, 0, len(sessions)),
	}
	for _, session := range sessions {
		snap := occupancy.Compute(occupancy.Input{
			Session: session,
			Date:    date,
			People:  people,
			Records: records,
			Space:   spaceByID[session.SpaceID],
		})

		overview.Sessions = append(overview.Sessions, snap)
		overview.TotalCapacity += snap.Capacity
		overview.TotalOccupancy += snap.DailyOccupancy
		if snap.IsFullToday {
			overview.FullSessions++
		}
		if snap.WaitlistOpportunity {
			overview.WaitlistOpportunities++
		}
	}
	return overview, nil
}
