package builds

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JustinWhittecar/critslots/internal/critslots"
	"github.com/JustinWhittecar/critslots/internal/models"
)

var (
	ErrBuildNotFound     = errors.New("build not found")
	ErrInstanceNotFound  = errors.New("equipment instance not found")
	ErrUnknownEquipment  = errors.New("unknown equipment")
	ErrSlotCountMismatch = errors.New("slot count does not match equipment size")
	ErrInvalidLocation   = errors.New("invalid location")
	ErrSlotOutOfRange    = errors.New("slot out of range")
	ErrNotRemovable      = errors.New("equipment is not removable")
)

// Repository loads and stores builds. Get returns nil, nil for a missing
// build.
type Repository interface {
	Get(ctx context.Context, id string) (*models.Build, error)
	Save(ctx context.Context, b *models.Build) error
	Delete(ctx context.Context, id string) error
}

// Catalog resolves equipment names to definitions.
type Catalog interface {
	Lookup(ctx context.Context, name string) (models.Equipment, bool, error)
}

// Notifier is told about every configuration change that was applied.
type Notifier interface {
	Publish(buildID string, report ChangeReport)
}

// ChangeReport is the outcome of an engine or gyro change.
type ChangeReport struct {
	BuildID           string                   `json:"build_id"`
	Change            string                   `json:"change"`
	From              string                   `json:"from"`
	To                string                   `json:"to"`
	Displaced         []string                 `json:"displaced"`
	AffectedLocations []models.Location        `json:"affected_locations"`
	Build             *models.Build            `json:"build"`
	Reservations      critslots.ReservationMap `json:"reservations"`
}

// Service is the build mutation layer. It owns the equipment list of each
// build and runs displacement on every engine or gyro edit.
type Service struct {
	repo     Repository
	catalog  Catalog
	notifier Notifier
	log      zerolog.Logger

	mu sync.Mutex
}

// NewService wires a service. catalog and notifier may be nil.
func NewService(repo Repository, catalog Catalog, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, notifier: notifier, log: log}
}

func (s *Service) load(ctx context.Context, id string) (*models.Build, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrBuildNotFound, id)
	}
	return b, nil
}

// Create starts a new empty build. Engine and gyro strings may be enum
// values or MegaMek descriptions.
func (s *Service) Create(ctx context.Context, name, engine, gyro string) (*models.Build, error) {
	if name == "" {
		name = "Untitled Build"
	}
	b := &models.Build{
		ID:         uuid.NewString(),
		Name:       name,
		EngineType: string(critslots.ParseEngineType(engine)),
		GyroType:   string(critslots.ParseGyroType(gyro)),
		Equipment:  []models.EquipmentInstance{},
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("create build: %w", err)
	}
	s.log.Info().Str("build", b.ID).Str("engine", b.EngineType).Str("gyro", b.GyroType).Msg("build created")
	return s.load(ctx, b.ID)
}

// Import stores a build whose equipment is already placed, e.g. from a stock
// .mtf layout. Instances that sit on reserved slots are unplaced.
func (s *Service) Import(ctx context.Context, name string, engine critslots.EngineType, gyro critslots.GyroType, equipment []models.EquipmentInstance) (*models.Build, []critslots.Conflict, error) {
	conflicts := critslots.Conflicts(equipment, critslots.ComputeReservations(engine, gyro))
	ids := map[string]struct{}{}
	for _, c := range conflicts {
		ids[c.InstanceID] = struct{}{}
	}
	b := &models.Build{
		ID:         uuid.NewString(),
		Name:       name,
		EngineType: string(engine),
		GyroType:   string(gyro),
		Equipment:  critslots.Apply(equipment, ids),
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, nil, fmt.Errorf("import build: %w", err)
	}
	if len(conflicts) > 0 {
		s.log.Warn().Str("build", b.ID).Int("conflicts", len(conflicts)).Msg("imported equipment overlapped reserved slots")
	}
	return b, conflicts, nil
}

// Get returns a build.
func (s *Service) Get(ctx context.Context, id string) (*models.Build, error) {
	return s.load(ctx, id)
}

// Delete removes a build.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete build: %w", err)
	}
	s.log.Info().Str("build", id).Msg("build deleted")
	return nil
}

// AddEquipment appends an unplaced instance of the named catalog item.
func (s *Service) AddEquipment(ctx context.Context, buildID, name string) (*models.EquipmentInstance, error) {
	if s.catalog == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEquipment, name)
	}
	def, ok, err := s.catalog.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEquipment, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.load(ctx, buildID)
	if err != nil {
		return nil, err
	}
	inst := models.EquipmentInstance{
		ID:            uuid.NewString(),
		EquipmentID:   def.ID,
		Name:          def.Name,
		CriticalSlots: def.Slots,
		IsRemovable:   true,
	}
	b.Equipment = append(b.Equipment, inst)
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("add equipment: %w", err)
	}
	return &inst, nil
}

// Place assigns a location and slots to an instance. The slot count and
// bounds are checked; whether the slots are free is the caller's concern.
func (s *Service) Place(ctx context.Context, buildID, instanceID string, loc models.Location, slots []int) (*models.Build, error) {
	if !loc.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocation, loc)
	}
	for _, slot := range slots {
		if !critslots.InBounds(loc, slot) {
			return nil, fmt.Errorf("%w: %s slot %d", ErrSlotOutOfRange, loc, slot)
		}
	}
	return s.mutate(ctx, buildID, instanceID, func(e *models.EquipmentInstance) error {
		if len(slots) != e.CriticalSlots {
			return fmt.Errorf("%w: %s needs %d, got %d", ErrSlotCountMismatch, e.Name, e.CriticalSlots, len(slots))
		}
		l := loc
		e.Location = &l
		// Non-nil even for zero-slot items so they count as placed.
		e.Slots = append([]int{}, slots...)
		return nil
	})
}

// Unplace moves an instance back to the unallocated pool.
func (s *Service) Unplace(ctx context.Context, buildID, instanceID string) (*models.Build, error) {
	return s.mutate(ctx, buildID, instanceID, func(e *models.EquipmentInstance) error {
		e.Location = nil
		e.Slots = nil
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, buildID, instanceID string, fn func(*models.EquipmentInstance) error) (*models.Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.load(ctx, buildID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(b.Equipment, instanceID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
	}
	updated := append([]models.EquipmentInstance(nil), b.Equipment...)
	if err := fn(&updated[idx]); err != nil {
		return nil, err
	}
	b.Equipment = updated
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("save build: %w", err)
	}
	return b, nil
}

// Remove deletes an instance from the build.
func (s *Service) Remove(ctx context.Context, buildID, instanceID string) (*models.Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.load(ctx, buildID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(b.Equipment, instanceID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
	}
	if !b.Equipment[idx].IsRemovable {
		return nil, fmt.Errorf("%w: %s", ErrNotRemovable, b.Equipment[idx].Name)
	}
	updated := make([]models.EquipmentInstance, 0, len(b.Equipment)-1)
	updated = append(updated, b.Equipment[:idx]...)
	updated = append(updated, b.Equipment[idx+1:]...)
	b.Equipment = updated
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("save build: %w", err)
	}
	return b, nil
}

// SetEngine swaps the engine type and unplaces whatever the new footprint
// covers.
func (s *Service) SetEngine(ctx context.Context, buildID, engine string) (*ChangeReport, error) {
	newEngine := critslots.ParseEngineType(engine)
	return s.reconfigure(ctx, buildID, "engine", func(b *models.Build) (critslots.Result, string, string) {
		oldEngine := critslots.EngineType(b.EngineType)
		gyro := critslots.GyroType(b.GyroType)
		res := critslots.DetectEngineChange(b.Equipment, oldEngine, newEngine, gyro)
		b.EngineType = string(newEngine)
		return res, string(oldEngine), string(newEngine)
	})
}

// SetGyro swaps the gyro type and unplaces whatever the new footprint
// covers.
func (s *Service) SetGyro(ctx context.Context, buildID, gyro string) (*ChangeReport, error) {
	newGyro := critslots.ParseGyroType(gyro)
	return s.reconfigure(ctx, buildID, "gyro", func(b *models.Build) (critslots.Result, string, string) {
		engine := critslots.EngineType(b.EngineType)
		oldGyro := critslots.GyroType(b.GyroType)
		res := critslots.DetectGyroChange(b.Equipment, engine, oldGyro, newGyro)
		b.GyroType = string(newGyro)
		return res, string(oldGyro), string(newGyro)
	})
}

// reconfigure applies a configuration change and publishes the report once
// the service lock is released; subscriber writes can be slow.
func (s *Service) reconfigure(ctx context.Context, buildID, change string, detect func(*models.Build) (critslots.Result, string, string)) (*ChangeReport, error) {
	report, err := s.applyChange(ctx, buildID, change, detect)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Publish(report.BuildID, *report)
	}
	return report, nil
}

func (s *Service) applyChange(ctx context.Context, buildID, change string, detect func(*models.Build) (critslots.Result, string, string)) (*ChangeReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.load(ctx, buildID)
	if err != nil {
		return nil, err
	}

	reservationsBefore := critslots.ComputeReservations(critslots.EngineType(b.EngineType), critslots.GyroType(b.GyroType))
	if pre := critslots.Conflicts(b.Equipment, reservationsBefore); len(pre) > 0 {
		s.log.Warn().Str("build", b.ID).Int("conflicts", len(pre)).
			Msg("equipment already overlapped reserved slots before the change")
	}

	res, from, to := detect(b)
	b.Equipment = critslots.Apply(b.Equipment, res.Displaced)

	if err := s.repo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("save build: %w", err)
	}

	report := &ChangeReport{
		BuildID:           b.ID,
		Change:            change,
		From:              from,
		To:                to,
		Displaced:         res.DisplacedIDs(),
		AffectedLocations: res.AffectedLocations(),
		Build:             b,
		Reservations:      critslots.ComputeReservations(critslots.EngineType(b.EngineType), critslots.GyroType(b.GyroType)),
	}

	s.log.Info().Str("build", b.ID).Str("change", change).Str("from", from).Str("to", to).
		Int("displaced", len(report.Displaced)).Msg("configuration changed")
	return report, nil
}

func indexOf(equipment []models.EquipmentInstance, id string) int {
	for i, e := range equipment {
		if e.ID == id {
			return i
		}
	}
	return -1
}
