package scheduler

import "github.com/shopops/roster-api-go/pkg/models"

// SeverityFor is the fixed severity lookup: shortages of required
// coverage are HIGH, degraded-quality fills are MEDIUM, anything
// unrecognized is LOW.
func SeverityFor(t models.ConflictType) models.Severity {
	switch t {
	case models.ConflictManagerShortage, models.ConflictStaffShortage:
		return models.SeverityHigh
	case models.ConflictYellowAssignment, models.ConflictPartialStaffShortage:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func severityRank(s models.Severity) int {
	switch s {
	case models.SeverityHigh:
		return 0
	case models.SeverityMedium:
		return 1
	default:
		return 2
	}
}

// Classify stamps each conflict's severity from the lookup table and
// returns them ranked HIGH to LOW. The sort is stable, so within one
// severity the engine's day order is preserved. Pure: the input slice
// is not modified.
func Classify(conflicts []models.ConflictRecord) []models.ConflictRecord {
	ranked := make([]models.ConflictRecord, len(conflicts))
	copy(ranked, conflicts)
	for i := range ranked {
		ranked[i].Severity = SeverityFor(ranked[i].Type)
	}
	// insertion sort keeps equal-severity order stable
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && severityRank(ranked[j].Severity) < severityRank(ranked[j-1].Severity); j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}
