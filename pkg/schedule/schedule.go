package schedule

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shopops/roster-api-go/pkg/dates"
	"github.com/shopops/roster-api-go/pkg/models"
	"github.com/shopops/roster-api-go/pkg/scheduler"
	"github.com/shopops/roster-api-go/pkg/timeoff"
)

// ErrInvalidAssignment marks a save payload rejected before any store
// mutation.
var ErrInvalidAssignment = errors.New("invalid assignment")

// Service owns the weekly_schedule collection: deciding between a
// saved week and a fresh generation, and the overwrite-on-save
// semantics. Generation output is never saved implicitly; saving is an
// explicit caller action.
type Service struct {
	db      *gorm.DB
	timeOff *timeoff.Service
	policy  models.AssignmentPolicy
}

func NewService(db *gorm.DB, timeOff *timeoff.Service, policy models.AssignmentPolicy) *Service {
	return &Service{db: db, timeOff: timeOff, policy: policy}
}

// buildEngine loads the roster, availability and templates and wires
// them to the time-off predicates. Roster order is id order, which
// keeps fills deterministic across runs.
func (s *Service) buildEngine() (*scheduler.Engine, error) {
	var roster []models.Employee
	if err := s.db.Order("id").Find(&roster).Error; err != nil {
		return nil, fmt.Errorf("employees list: %w", err)
	}
	var availability []models.AvailabilityEntry
	if err := s.db.Find(&availability).Error; err != nil {
		return nil, fmt.Errorf("availability list: %w", err)
	}
	var templates []models.StaffingTemplate
	if err := s.db.Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("staffing_templates list: %w", err)
	}
	return scheduler.NewEngine(roster, availability, templates, s.timeOff, s.policy), nil
}

// GenerateWeek runs the assignment engine for the week without
// touching saved rows.
func (s *Service) GenerateWeek(weekStart dates.Date) (*models.WeekResult, error) {
	engine, err := s.buildEngine()
	if err != nil {
		return nil, err
	}
	return engine.GenerateWeek(weekStart)
}

// LoadOrGenerate returns the saved week verbatim when any rows exist
// for weekStart — manual edits are never silently regenerated away —
// and otherwise falls through to a fresh, unsaved generation.
func (s *Service) LoadOrGenerate(weekStart dates.Date) (*models.WeekResult, error) {
	var saved []models.ShiftAssignment
	err := s.db.Where("week_start = ?", weekStart.String()).
		Order("date, start_time, id").Find(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("weekly_schedule list: %w", err)
	}

	if len(saved) > 0 {
		if err := s.annotate(saved); err != nil {
			return nil, err
		}
		return &models.WeekResult{
			WeekStart:   weekStart,
			Assignments: saved,
			Conflicts:   []models.ConflictRecord{},
			Generated:   false,
		}, nil
	}

	return s.GenerateWeek(weekStart)
}

// annotate recomputes the derived display fields on loaded rows; they
// are never stored, so a loaded week reflects the current time-off
// state.
func (s *Service) annotate(assignments []models.ShiftAssignment) error {
	for i := range assignments {
		window, err := s.timeOff.PartialWindowFor(assignments[i].EmployeeID, assignments[i].Date)
		if err != nil {
			return err
		}
		assignments[i].PartialTimeOff = window

		off, err := s.timeOff.IsFullDayOff(assignments[i].EmployeeID, assignments[i].Date)
		if err != nil {
			return err
		}
		assignments[i].FullDayConflict = off
	}
	return nil
}

// Save replaces the week: delete all rows for weekStart, then bulk
// insert the provided set. Both steps run inside one transaction so a
// failed insert cannot leave the week empty; the error still reports
// which step broke. Last save wins — concurrent editors are not
// coordinated.
func (s *Service) Save(weekStart dates.Date, assignments []models.ShiftAssignment) error {
	weekEnd := weekStart.AddDays(6)
	rows := make([]models.ShiftAssignment, len(assignments))
	for i, a := range assignments {
		if a.EmployeeID == 0 {
			return fmt.Errorf("assignment %d: employee_id is required: %w", i, ErrInvalidAssignment)
		}
		if !a.Date.Within(weekStart, weekEnd) {
			return fmt.Errorf("assignment %d: date %s outside week of %s: %w", i, a.Date, weekStart, ErrInvalidAssignment)
		}
		if a.StartTime == "" || a.EndTime == "" {
			return fmt.Errorf("assignment %d: start_time and end_time are required: %w", i, ErrInvalidAssignment)
		}
		a.ID = 0
		a.WeekStart = weekStart
		if a.Source == "" {
			a.Source = models.SourceManuallyAdded
		}
		rows[i] = a
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("week_start = ?", weekStart.String()).
			Delete(&models.ShiftAssignment{})
		if res.Error != nil {
			return fmt.Errorf("weekly_schedule delete: %w", res.Error)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("weekly_schedule insert after deleting %d row(s): %w", res.RowsAffected, err)
		}
		return nil
	})
}
