package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/windwardhq/scheduling-api/internal/dto"
	"github.com/windwardhq/scheduling-api/pkg/export"
)

type queueProvider interface {
	Queues(ctx context.Context, date string) ([]*TeacherQueue, error)
}

// EarningsService aggregates a day's priced events into per-teacher
// earnings rows and renders them for export. Pending nodes are excluded:
// only events confirmed by the booking source count toward earnings.
type EarningsService struct {
	queues     queueProvider
	commission *CommissionService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewEarningsService constructs an EarningsService.
func NewEarningsService(queues queueProvider, commission *CommissionService, logger *zap.Logger) *EarningsService {
	if commission == nil {
		commission = NewCommissionService(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EarningsService{
		queues:     queues,
		commission: commission,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// Daily builds the earnings report for one day.
func (s *EarningsService) Daily(ctx context.Context, date string) (*dto.DailyEarningsReport, error) {
	queues, err := s.queues.Queues(ctx, date)
	if err != nil {
		return nil, err
	}

	report := &dto.DailyEarningsReport{Date: date, Teachers: make([]dto.TeacherEarningsRow, 0, len(queues))}
	for _, queue := range queues {
		row := dto.TeacherEarningsRow{TeacherID: queue.TeacherID, Username: queue.TeacherUsername}
		for _, node := range queue.Events {
			if node.Pending {
				continue
			}
			revenue := s.commission.NodeRevenue(node)
			breakdown := s.commission.NodeBreakdown(node)

			row.Events++
			row.Minutes += node.Duration
			row.Revenue += revenue
			row.Earned += breakdown.Earned
			row.SchoolRevenue += s.commission.SchoolRevenue(revenue, breakdown.Earned)
			row.SchoolProfit += s.commission.SchoolProfit(revenue, breakdown.Earned)
		}
		report.Teachers = append(report.Teachers, row)
		report.TotalRevenue += row.Revenue
		report.TotalEarned += row.Earned
		report.TotalSchoolRevenue += row.SchoolRevenue
		report.TotalSchoolProfit += row.SchoolProfit
	}
	return report, nil
}

// RenderCSV encodes the report as CSV.
func (s *EarningsService) RenderCSV(report *dto.DailyEarningsReport) ([]byte, error) {
	return s.csv.Render(earningsDataset(report))
}

// RenderPDF renders the report as a tabular PDF.
func (s *EarningsService) RenderPDF(report *dto.DailyEarningsReport) ([]byte, error) {
	return s.pdf.Render(earningsDataset(report), "Teacher earnings "+report.Date)
}

func earningsDataset(report *dto.DailyEarningsReport) export.Dataset {
	headers := []string{"Teacher", "Events", "Minutes", "Revenue", "Earned", "School Revenue", "School Profit"}
	rows := make([]map[string]string, 0, len(report.Teachers)+1)
	for _, row := range report.Teachers {
		rows = append(rows, map[string]string{
			"Teacher":        row.Username,
			"Events":         fmt.Sprintf("%d", row.Events),
			"Minutes":        fmt.Sprintf("%d", row.Minutes),
			"Revenue":        fmt.Sprintf("%.2f", row.Revenue),
			"Earned":         fmt.Sprintf("%.2f", row.Earned),
			"School Revenue": fmt.Sprintf("%.2f", row.SchoolRevenue),
			"School Profit":  fmt.Sprintf("%.2f", row.SchoolProfit),
		})
	}
	rows = append(rows, map[string]string{
		"Teacher":        "TOTAL",
		"Events":         "",
		"Minutes":        "",
		"Revenue":        fmt.Sprintf("%.2f", report.TotalRevenue),
		"Earned":         fmt.Sprintf("%.2f", report.TotalEarned),
		"School Revenue": fmt.Sprintf("%.2f", report.TotalSchoolRevenue),
		"School Profit":  fmt.Sprintf("%.2f", report.TotalSchoolProfit),
	})
	return export.Dataset{Headers: headers, Rows: rows}
}
