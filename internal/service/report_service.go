package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/lifecycle"
	"github.com/ticketera/helpdesk-service/internal/repository"
	"github.com/ticketera/helpdesk-service/internal/sla"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

const (
	ticketSheet  = "Tickets"
	summarySheet = "Summary"
	reportLayout = "2006-01-02 15:04"
)

var reportHeader = []any{
	"Key", "Title", "Status", "Priority", "Category", "Requester", "Assignee",
	"Created", "Due", "Closed", "Hours open", "Business hours", "Overdue",
}

// ReportService exports ticket listings as spreadsheets.
type ReportService struct {
	tickets repository.TicketRepository
	clock   *sla.Clock
	now     func() time.Time
}

// NewReportService constructs the service. clock may be nil, in which case business hours are
// left empty.
func NewReportService(tickets repository.TicketRepository, clock *sla.Clock) *ReportService {
	return &ReportService{tickets: tickets, clock: clock, now: time.Now}
}

// ExportTickets writes every ticket matching filter as an xlsx workbook to w.
func (s *ReportService) ExportTickets(ctx context.Context, actor domain.Actor, filter repository.TicketFilter, w io.Writer) error {
	if !actor.Privileged() {
		return apperrors.NewForbidden("support staff only")
	}
	if filter.OrderBy != "" && !repository.ValidTicketOrder(filter.OrderBy) {
		return apperrors.NewValidationError("invalid ordering", map[string]any{"ordering": filter.OrderBy})
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", ticketSheet); err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.writeHeader(f, ticketSheet, reportHeader); err != nil {
		return apperrors.NewInternalError(err)
	}

	now := s.now().UTC()
	byStatus := make(map[domain.TicketStatus]int)
	byPriority := make(map[int]int)
	overdue := 0
	row := 2

	filter.Limit = repository.MaxTicketLimit
	filter.Offset = 0
	for {
		page, err := s.tickets.List(ctx, filter)
		if err != nil {
			return apperrors.MapError(err)
		}
		for i := range page {
			t := &page[i]
			isOverdue := sla.Overdue(t, now)
			if err := s.writeTicket(f, row, t, isOverdue); err != nil {
				return apperrors.NewInternalError(err)
			}
			row++
			byStatus[t.Status]++
			byPriority[t.Priority]++
			if isOverdue {
				overdue++
			}
		}
		if len(page) < filter.Limit {
			break
		}
		filter.Offset += filter.Limit
	}

	if err := s.writeSummary(f, byStatus, byPriority, overdue, row-2); err != nil {
		return apperrors.NewInternalError(err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *ReportService) writeHeader(f *excelize.File, sheet string, header []any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func (s *ReportService) writeTicket(f *excelize.File, row int, t *domain.Ticket, overdue bool) error {
	duration := lifecycle.TicketDuration(t)
	var hours, business any
	if duration.Closed {
		hours = duration.Hours
		if s.clock != nil {
			business = s.clock.BusinessDuration(t)
		}
	}
	values := []any{
		t.ExternalKey,
		t.Title,
		string(t.Status),
		t.Priority,
		t.CategoryID,
		t.RequesterID,
		optional(t.AssigneeID),
		t.CreatedAt.UTC().Format(reportLayout),
		formatTime(t.DueAt),
		formatTime(t.ClosedAt),
		hours,
		business,
		overdue,
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(ticketSheet, cell, &values)
}

func (s *ReportService) writeSummary(f *excelize.File, byStatus map[domain.TicketStatus]int, byPriority map[int]int, overdue, total int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := s.writeHeader(f, summarySheet, []any{"Metric", "Count"}); err != nil {
		return err
	}
	rows := [][]any{{"Total", total}, {"Overdue", overdue}}
	for _, st := range domain.TicketStatuses {
		rows = append(rows, []any{"Status " + string(st), byStatus[st]})
	}
	for p := domain.PriorityHighest; p <= domain.PriorityLowest; p++ {
		rows = append(rows, []any{fmt.Sprintf("Priority %d", p), byPriority[p]})
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(reportLayout)
}
