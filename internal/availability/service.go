package availability

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/schedule"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// Service owns weekly availability reads and writes. It validates against the
// clinic policy before anything touches the store and fills defaults on read,
// so callers never see "not found".
type Service struct {
	store  Store
	policy Policy
	logger *logging.Logger
}

// NewService constructs an availability service.
func NewService(store Store, policy Policy, logger *logging.Logger) *Service {
	if store == nil {
		panic("availability: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, policy: policy, logger: logger}
}

// Get returns the practitioner's weekly schedule, with unconfigured days
// defaulting to disabled. A practitioner who never saved a schedule gets the
// all-disabled default rather than an error.
func (s *Service) Get(ctx context.Context, practitionerID uuid.UUID) (schedule.WeekWindows, error) {
	stored, err := s.store.Get(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	week := s.policy.DefaultWeek()
	for d, w := range stored {
		if d.Bookable() {
			week[d] = w
		}
	}
	return week, nil
}

// Set validates the whole schedule against the policy and persists it
// atomically. An invalid day rejects the entire set; nothing is written.
func (s *Service) Set(ctx context.Context, practitionerID uuid.UUID, week schedule.WeekWindows) error {
	if err := s.policy.Validate(week); err != nil {
		return err
	}
	if err := s.store.Set(ctx, practitionerID, week); err != nil {
		return err
	}
	s.logger.Info("weekly availability updated", "practitioner_id", practitionerID)
	return nil
}

// WeekWindows implements schedule.AvailabilitySource.
func (s *Service) WeekWindows(ctx context.Context, practitionerID uuid.UUID) (schedule.WeekWindows, error) {
	return s.Get(ctx, practitionerID)
}
