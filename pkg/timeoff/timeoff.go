package timeoff

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopops/roster-api-go/pkg/dates"
	"github.com/shopops/roster-api-go/pkg/models"
)

var (
	// ErrNotFound means the referenced request row does not exist.
	ErrNotFound = errors.New("time off request not found")
	// ErrNotRecurring means an expansion was requested for a request
	// that carries no recurrence descriptor or is itself an instance.
	ErrNotRecurring = errors.New("request is not a recurring parent")
	// ErrDuplicate means a time-off row already covers the same
	// employee and date.
	ErrDuplicate = errors.New("time off already exists for employee on that date")
)

// ValidationError is a rejected-before-mutation input problem. The
// message is surfaced to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Service owns all reads and writes of the time_off_requests
// collection: request validation, recurrence expansion, cascade
// deletes and the conflict predicates the assignment engine consults.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Validate rejects malformed requests before any store mutation.
func Validate(r *models.TimeOffRequest) error {
	if r.EmployeeID == 0 {
		return &ValidationError{"employee_id", "is required"}
	}
	if r.StartDate.IsZero() {
		return &ValidationError{"start_date", "is required"}
	}
	if r.EndDate.IsZero() {
		return &ValidationError{"end_date", "is required"}
	}
	if r.EndDate.Before(r.StartDate) {
		return &ValidationError{"end_date", "must not be before start_date"}
	}

	switch r.Type {
	case models.TimeOffFullDays:
		// no window fields
	case models.TimeOffPartialDay:
		if r.StartDate != r.EndDate {
			return &ValidationError{"end_date", "partial day requests must cover a single date"}
		}
		if r.StartTime == "" || r.EndTime == "" {
			return &ValidationError{"start_time", "partial day requests need an available window"}
		}
		startMin, err := dates.ParseClock(r.StartTime)
		if err != nil {
			return &ValidationError{"start_time", err.Error()}
		}
		endMin, err := dates.ParseClock(r.EndTime)
		if err != nil {
			return &ValidationError{"end_time", err.Error()}
		}
		if endMin <= startMin {
			return &ValidationError{"end_time", "must be after start_time"}
		}
	default:
		return &ValidationError{"type", "must be FULL_DAYS or PARTIAL_DAY"}
	}

	if r.Pattern != "" {
		if r.ParentRequestID != nil {
			return &ValidationError{"pattern", "instances cannot recurse"}
		}
		switch r.Pattern {
		case models.RecurWeekly, models.RecurMonthly:
			if r.Interval < 1 {
				return &ValidationError{"interval", "must be at least 1"}
			}
		case models.RecurBiweekly:
			// interval is forced to 2 regardless of input
		default:
			return &ValidationError{"pattern", "must be weekly, biweekly or monthly"}
		}
		if !r.PatternEnd.IsZero() && r.PatternEnd.Before(r.StartDate) {
			return &ValidationError{"pattern_end", "must not be before start_date"}
		}
	}
	return nil
}

// Create validates and inserts a request, stamping a fresh series id
// and normalizing the biweekly interval.
func (s *Service) Create(r *models.TimeOffRequest) error {
	if err := Validate(r); err != nil {
		return err
	}
	if r.Pattern == models.RecurBiweekly {
		r.Interval = 2
	}
	if r.SeriesID == uuid.Nil {
		r.SeriesID = uuid.New()
	}
	if err := s.db.Create(r).Error; err != nil {
		return fmt.Errorf("time_off_requests insert: %w", err)
	}
	return nil
}

// Get loads one request by id.
func (s *Service) Get(id uint) (*models.TimeOffRequest, error) {
	var r models.TimeOffRequest
	if err := s.db.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("time_off_requests get: %w", err)
	}
	return &r, nil
}

// ListForEmployee returns all requests for an employee, parents and
// instances alike, ordered by start date.
func (s *Service) ListForEmployee(employeeID uint) ([]models.TimeOffRequest, error) {
	var rows []models.TimeOffRequest
	err := s.db.Where("employee_id = ?", employeeID).
		Order("start_date").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("time_off_requests list: %w", err)
	}
	return rows, nil
}

// occurrenceDates walks the recurrence grid from the parent's start
// date up to and including until (also capped by the parent's own
// pattern end date when one is set).
func occurrenceDates(parent *models.TimeOffRequest, until dates.Date) []dates.Date {
	stop := until
	if !parent.PatternEnd.IsZero() && parent.PatternEnd.Before(stop) {
		stop = parent.PatternEnd
	}

	var out []dates.Date
	switch parent.Pattern {
	case models.RecurWeekly:
		step := 7 * parent.Interval
		for d := parent.StartDate; !d.After(stop); d = d.AddDays(step) {
			out = append(out, d)
		}
	case models.RecurBiweekly:
		for d := parent.StartDate; !d.After(stop); d = d.AddDays(14) {
			out = append(out, d)
		}
	case models.RecurMonthly:
		// Same day-of-month each step, clamped to month length; step
		// from the anchor so a Jan 31 start hits Feb 28 then Mar 31.
		for n := 0; ; n += parent.Interval {
			d := parent.StartDate.AddMonths(n)
			if d.After(stop) {
				break
			}
			out = append(out, d)
		}
	}
	return out
}

// instanceFor copies the parent's type, window and reason onto one
// concrete single-day child row.
func instanceFor(parent *models.TimeOffRequest, date dates.Date) models.TimeOffRequest {
	parentID := parent.ID
	return models.TimeOffRequest{
		EmployeeID:      parent.EmployeeID,
		StartDate:       date,
		EndDate:         date,
		Type:            parent.Type,
		StartTime:       parent.StartTime,
		EndTime:         parent.EndTime,
		Reason:          parent.Reason,
		ParentRequestID: &parentID,
		SeriesID:        parent.SeriesID,
	}
}

// Expand materializes a recurring parent into concrete single-day
// instance rows from its start date through until. It is append-only:
// a second call duplicates unless ClearInstances ran first. Returns
// the number of rows actually created; on a mid-sequence store
// failure the count reports exactly what was inserted before it.
func (s *Service) Expand(parentID uint, until dates.Date) (int, error) {
	parent, err := s.Get(parentID)
	if err != nil {
		return 0, err
	}
	if !parent.IsRecurringParent() {
		return 0, ErrNotRecurring
	}
	if until.Before(parent.StartDate) {
		return 0, &ValidationError{"until", "must not be before the parent's start_date"}
	}

	created := 0
	for _, d := range occurrenceDates(parent, until) {
		inst := instanceFor(parent, d)
		if err := s.db.Create(&inst).Error; err != nil {
			return created, fmt.Errorf("time_off_requests insert (%d of sequence created): %w", created, err)
		}
		created++
	}
	return created, nil
}

// CreateOccurrence creates one instance of a recurring parent on an
// arbitrary date, off the recurrence grid or on it. Refuses with
// ErrDuplicate when any time-off row already covers that employee and
// date.
func (s *Service) CreateOccurrence(parentID uint, date dates.Date) (*models.TimeOffRequest, error) {
	parent, err := s.Get(parentID)
	if err != nil {
		return nil, err
	}
	if !parent.IsRecurringParent() {
		return nil, ErrNotRecurring
	}

	covered, err := s.hasRowCovering(parent.EmployeeID, date)
	if err != nil {
		return nil, err
	}
	if covered {
		return nil, ErrDuplicate
	}

	inst := instanceFor(parent, date)
	if err := s.db.Create(&inst).Error; err != nil {
		return nil, fmt.Errorf("time_off_requests insert: %w", err)
	}
	return &inst, nil
}

// DeleteInstance removes a single materialized instance, leaving the
// parent and sibling instances untouched.
func (s *Service) DeleteInstance(id uint) error {
	row, err := s.Get(id)
	if err != nil {
		return err
	}
	if !row.IsInstance() {
		return &ValidationError{"id", "not an instance; delete the series instead"}
	}
	if err := s.db.Delete(&models.TimeOffRequest{}, id).Error; err != nil {
		return fmt.Errorf("time_off_requests delete: %w", err)
	}
	return nil
}

// ClearInstances deletes all instances of a parent and returns how
// many went. Callers use it before re-running Expand, which is
// deliberately append-only.
func (s *Service) ClearInstances(parentID uint) (int64, error) {
	res := s.db.Where("parent_request_id = ?", parentID).
		Delete(&models.TimeOffRequest{})
	if res.Error != nil {
		return 0, fmt.Errorf("time_off_requests delete instances: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteSeries removes a recurring parent and every instance tied to
// it. Instances go first; no database-level cascade is assumed.
func (s *Service) DeleteSeries(parentID uint) error {
	parent, err := s.Get(parentID)
	if err != nil {
		return err
	}
	if parent.IsInstance() {
		return &ValidationError{"id", "is an instance, not a series parent"}
	}
	if _, err := s.ClearInstances(parentID); err != nil {
		return err
	}
	if err := s.db.Delete(&models.TimeOffRequest{}, parentID).Error; err != nil {
		return fmt.Errorf("time_off_requests delete parent: %w", err)
	}
	return nil
}

// Delete removes a non-recurring request. Recurring parents must go
// through DeleteSeries and instances through DeleteInstance.
func (s *Service) Delete(id uint) error {
	row, err := s.Get(id)
	if err != nil {
		return err
	}
	if row.IsRecurringParent() {
		return s.DeleteSeries(id)
	}
	if err := s.db.Delete(&models.TimeOffRequest{}, id).Error; err != nil {
		return fmt.Errorf("time_off_requests delete: %w", err)
	}
	return nil
}

// dateMatched excludes recurring parents: they contribute through
// their expanded instances only, never by matching the parent row's
// own date range.
const dateMatched = "(pattern = '' OR pattern IS NULL OR parent_request_id IS NOT NULL)"

// IsFullDayOff reports whether any date-matched FULL_DAYS request for
// the employee covers the date.
func (s *Service) IsFullDayOff(employeeID uint, date dates.Date) (bool, error) {
	var count int64
	err := s.db.Model(&models.TimeOffRequest{}).
		Where("employee_id = ? AND type = ?", employeeID, models.TimeOffFullDays).
		Where("start_date <= ? AND end_date >= ?", date.String(), date.String()).
		Where(dateMatched).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("time_off_requests list: %w", err)
	}
	return count > 0, nil
}

// PartialWindowFor returns the PARTIAL_DAY request whose single date
// equals the query date, or nil. A match does not block assignment; it
// annotates the shift with the window the employee is available
// inside.
func (s *Service) PartialWindowFor(employeeID uint, date dates.Date) (*models.TimeOffRequest, error) {
	var rows []models.TimeOffRequest
	err := s.db.
		Where("employee_id = ? AND type = ?", employeeID, models.TimeOffPartialDay).
		Where("start_date = ?", date.String()).
		Where(dateMatched).
		Limit(1).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("time_off_requests list: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// hasRowCovering reports whether any date-matched row of either type
// touches the employee+date, the duplicate guard for ad hoc
// occurrences.
func (s *Service) hasRowCovering(employeeID uint, date dates.Date) (bool, error) {
	var count int64
	err := s.db.Model(&models.TimeOffRequest{}).
		Where("employee_id = ?", employeeID).
		Where("start_date <= ? AND end_date >= ?", date.String(), date.String()).
		Where(dateMatched).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("time_off_requests list: %w", err)
	}
	return count > 0, nil
}
