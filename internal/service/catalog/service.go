package catalog_service

import (
	"context"
	"fmt"
	"strings"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"
	"studio-desk/internal/service"

	"github.com/google/uuid"
)

type catalogService struct {
	spaceRepo      repository.SpaceRepository
	instructorRepo repository.InstructorRepository
	activityRepo   repository.ActivityRepository
	tariffRepo     repository.TariffRepository
	notifier       *service.Notifier
}

func NewCatalogService(
	spaceRepo repository.SpaceRepository,
	instructorRepo repository.InstructorRepository,
	activityRepo repository.ActivityRepository,
	tariffRepo repository.TariffRepository,
	notifier *service.Notifier,
) service.CatalogService {
	return &catalogService{
		spaceRepo:      spaceRepo,
		instructorRepo: instructorRepo,
		activityRepo:   activityRepo,
		tariffRepo:     tariffRepo,
		notifier:       notifier,
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, repository.ErrNotFound)
}

func requireName(name *string) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return service.Invalid("name", "is required")
	}
	return nil
}

// Залы

func validateSpace(space *models.Space) error {
	if err := requireName(&space.Name); err != nil {
		return err
	}
	if space.Capacity < 1 {
		return service.Invalid("capacity", "must be at least 1")
	}
	return nil
}

func (s *catalogService) CreateSpace(ctx context.Context, space *models.Space) error {
	if err := validateSpace(space); err != nil {
		return err
	}
	space.ID = uuid.NewString()
	return s.spaceRepo.Create(ctx, space)
}

func (s *catalogService) GetSpace(ctx context.Context, id string) (*models.Space, error) {
	space, err := s.spaceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if space == nil {
		return nil, notFound("space", id)
	}
	return space, nil
}

func (s *catalogService) ListSpaces(ctx context.Context) ([]models.Space, error) {
	return s.spaceRepo.List(ctx)
}

// UpdateSpace never evicts anyone: lowering capacity below the roster size
// only makes the sessions structurally full.
func (s *catalogService) UpdateSpace(ctx context.Context, space *models.Space) error {
	if err := validateSpace(space); err != nil {
		return err
	}
	if err := s.spaceRepo.Update(ctx, space); err != nil {
		return fmt.Errorf("update space %s: %w", space.ID, err)
	}
	s.notifier.InvalidateAll(ctx)
	return nil
}

func (s *catalogService) DeleteSpace(ctx context.Context, id string) error {
	if err := s.spaceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete space %s: %w", id, err)
	}
	return nil
}

// Инструкторы

func (s *catalogService) CreateInstructor(ctx context.Context, instructor *models.Instructor) error {
	if err := requireName(&instructor.Name); err != nil {
		return err
	}
	instructor.ID = uuid.NewString()
	return s.instructorRepo.Create(ctx, instructor)
}

func (s *catalogService) GetInstructor(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.instructorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if instructor == nil {
		return nil, notFound("instructor", id)
	}
	return instructor, nil
}

func (s *catalogService) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	return s.instructorRepo.List(ctx)
}

func (s *catalogService) UpdateInstructor(ctx context.Context, instructor *models.Instructor) error {
	if err := requireName(&instructor.Name); err != nil {
		return err
	}
	if err := s.instructorRepo.Update(ctx, instructor); err != nil {
		return fmt.Errorf("update instructor %s: %w", instructor.ID, err)
	}
	return nil
}

func (s *catalogService) DeleteInstructor(ctx context.Context, id string) error {
	if err := s.instructorRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete instructor %s: %w", id, err)
	}
	return nil
}

// Направления и уровни

func (s *catalogService) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if err := requireName(&activity.Name); err != nil {
		return err
	}
	activity.ID = uuid.NewString()
	return s.activityRepo.CreateActivity(ctx, activity)
}

func (s *catalogService) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.activityRepo.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, notFound("activity", id)
	}
	return activity, nil
}

func (s *catalogService) ListActivities(ctx context.Context) ([]models.Activity, error) {
	return s.activityRepo.ListActivities(ctx)
}

func (s *catalogService) UpdateActivity(ctx context.Context, activity *models.Activity) error {
	if err := requireName(&activity.Name); err != nil {
		return err
	}
	if err := s.activityRepo.UpdateActivity(ctx, activity); err != nil {
		return fmt.Errorf("update activity %s: %w", activity.ID, err)
	}
	return nil
}

func (s *catalogService) DeleteActivity(ctx context.Context, id string) error {
	if err := s.activityRepo.DeleteActivity(ctx, id); err != nil {
		return fmt.Errorf("delete activity %s: %w", id, err)
	}
	return nil
}

func (s *catalogService) CreateLevel(ctx context.Context, level *models.Level) error {
	if err := requireName(&level.Name); err != nil {
		return err
	}
	level.ID = uuid.NewString()
	return s.activityRepo.CreateLevel(ctx, level)
}

func (s *catalogService) GetLevel(ctx context.Context, id string) (*models.Level, error) {
	level, err := s.activityRepo.GetLevel(ctx, id)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return nil, notFound("level", id)
	}
	return level, nil
}

func (s *catalogService) ListLevels(ctx context.Context) ([]models.Level, error) {
	return s.activityRepo.ListLevels(ctx)
}

func (s *catalogService) UpdateLevel(ctx context.Context, level *models.Level) error {
	if err := requireName(&level.Name); err != nil {
		return err
	}
	if err := s.activityRepo.UpdateLevel(ctx, level); err != nil {
		return fmt.Errorf("update level %s: %w", level.ID, err)
	}
	return nil
}

func (s *catalogService) DeleteLevel(ctx context.Context, id string) error {
	if err := s.activityRepo.DeleteLevel(ctx, id); err != nil {
		return fmt.Errorf("delete level %s: %w", id, err)
	}
	return nil
}

// Тарифы

func validateTariff(tariff *models.Tariff) error {
	if err := requireName(&tariff.Name); err != nil {
		return err
	}
	if tariff.Price.IsNegative() {
		return service.Invalid("price", "must not be negative")
	}
	if tariff.WeeklyLimit != nil && *tariff.WeeklyLimit < 1 {
		return service.Invalid("weekly_limit", "must be at least 1 when set")
	}
	return nil
}

func (s *catalogService) CreateTariff(ctx context.Context, tariff *models.Tariff) error {
	if err := validateTariff(tariff); err != nil {
		return err
	}
	tariff.ID = uuid.NewString()
	return s.tariffRepo.Create(ctx, tariff)
}

func (s *catalogService) GetTariff(ctx context.Context, id string) (*models.Tariff, error) {
	tariff, err := s.tariffRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tariff == nil {
		return nil, notFound("tariff", id)
	}
	return tariff, nil
}

func (s *catalogService) ListTariffs(ctx context.Context) ([]models.Tariff, error) {
	return s.tariffRepo.List(ctx)
}

func (s *catalogService) UpdateTariff(ctx context.Context, tariff *models.Tariff) error {
	if err := validateTariff(tariff); err != nil {
		return err
	}
	if err := s.tariffRepo.Update(ctx, tariff); err != nil {
		return fmt.Errorf("update tariff %s: %w", tariff.ID, err)
	}
	return nil
}

func (s *catalogService) DeleteTariff(ctx context.Context, id string) error {
	if err := s.tariffRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tariff %s: %w", id, err)
	}
	return nil
}
