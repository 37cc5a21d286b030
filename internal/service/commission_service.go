package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/windwardhq/scheduling-api/internal/dto"
	"github.com/windwardhq/scheduling-api/internal/models"
)

// CommissionService converts event duration, package pricing and a
// teacher's commission contract into revenue, earnings and profit figures.
// Every method is a total function: degenerate input (zero package
// duration, zero rate) resolves to zero rather than an error.
type CommissionService struct {
	logger *zap.Logger
}

// NewCommissionService constructs a CommissionService.
func NewCommissionService(logger *zap.Logger) *CommissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommissionService{logger: logger}
}

// LessonRevenue prices one event: the package's per-minute rate times the
// event duration times the student count. A zero-duration package is
// treated as degenerate and yields zero revenue.
func (s *CommissionService) LessonRevenue(pricePerStudent float64, studentCount, eventDurationMinutes, packageDurationMinutes int) float64 {
	if packageDurationMinutes == 0 {
		return 0
	}
	return pricePerStudent / float64(packageDurationMinutes) * float64(eventDurationMinutes) * float64(studentCount)
}

// Calculate derives the display-ready commission breakdown for one event.
// For fixed contracts the teacher earns cph per hour taught; for percentage
// contracts the teacher earns cph percent of the event's revenue, and the
// displayed price per hour is what this event grossed per hour.
func (s *CommissionService) Calculate(durationMinutes int, commissionType models.CommissionType, cph, lessonRevenue float64) dto.CommissionBreakdown {
	hours := float64(durationMinutes) / 60

	breakdown := dto.CommissionBreakdown{
		Type:  string(commissionType),
		Hours: formatHours(durationMinutes),
	}

	switch commissionType {
	case models.CommissionPercentage:
		breakdown.Earned = cph / 100 * lessonRevenue
		breakdown.CommissionRate = fmt.Sprintf("%g%%", cph)
		if hours > 0 {
			breakdown.PricePerHour = formatMoney(lessonRevenue / hours)
		} else {
			breakdown.PricePerHour = formatMoney(0)
		}
	default:
		breakdown.Earned = cph * hours
		breakdown.CommissionRate = formatMoney(cph) + "/hr"
		breakdown.PricePerHour = formatMoney(cph)
	}

	breakdown.EarnedDisplay = formatMoney(breakdown.Earned)
	return breakdown
}

// SchoolProfit floors school profit at zero: a contract that pays the
// teacher more than the event grossed never shows negative profit in the
// school view.
func (s *CommissionService) SchoolProfit(lessonRevenue, teacherEarnings float64) float64 {
	profit := lessonRevenue - teacherEarnings
	if profit < 0 {
		return 0
	}
	return profit
}

// SchoolRevenue is the unfloored revenue-minus-commission figure used for
// aggregate statistics. It may go negative and is kept distinct from
// SchoolProfit on purpose.
func (s *CommissionService) SchoolRevenue(lessonRevenue, teacherEarnings float64) float64 {
	return lessonRevenue - teacherEarnings
}

// NodeRevenue prices an event node using its denormalized package fields.
func (s *CommissionService) NodeRevenue(node EventNode) float64 {
	return s.LessonRevenue(node.Package.PricePerStudent, len(node.Students), node.Duration, node.Package.DurationMinutes)
}

// NodeBreakdown derives the commission projection for an event node.
func (s *CommissionService) NodeBreakdown(node EventNode) dto.CommissionBreakdown {
	revenue := s.NodeRevenue(node)
	return s.Calculate(node.Duration, node.CommissionType, node.CommissionCPH, revenue)
}

// formatHours renders a duration the way the booking UI expects: plain
// minutes below one hour, "H:MM hrs" from one hour up.
func formatHours(durationMinutes int) string {
	if durationMinutes < 60 {
		return fmt.Sprintf("%d mins", durationMinutes)
	}
	return fmt.Sprintf("%d:%02d hrs", durationMinutes/60, durationMinutes%60)
}

func formatMoney(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
