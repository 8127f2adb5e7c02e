// Package sla measures ticket time against business hours and decides when a ticket is overdue.
package sla

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rickar/cal/v2"

	"github.com/ticketera/helpdesk-service/internal/config"
	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/lifecycle"
)

// Clock wraps a business calendar configured from SLA settings.
type Clock struct {
	calendar *cal.BusinessCalendar
	location *time.Location
}

// NewClock builds a Monday to Friday business calendar with the configured hours and holidays.
// Holidays are "MM-DD" (recurring) or "YYYY-MM-DD" (one time).
func NewClock(cfg config.SLAConfig) (*Clock, error) {
	loc, err := time.LoadLocation(cfg.BusinessTimeZone)
	if err != nil {
		return nil, fmt.Errorf("load business timezone: %w", err)
	}

	c := cal.NewBusinessCalendar()
	c.SetWorkHours(time.Duration(cfg.BusinessHoursStart)*time.Hour, time.Duration(cfg.BusinessHoursEnd)*time.Hour)
	c.SetWorkday(time.Saturday, false)
	c.SetWorkday(time.Sunday, false)

	for _, raw := range cfg.Holidays {
		h, err := parseHoliday(raw)
		if err != nil {
			return nil, err
		}
		c.AddHoliday(h)
	}

	return &Clock{calendar: c, location: loc}, nil
}

// WorkHours returns business hours elapsed between start and end, rounded to 2 decimals.
func (c *Clock) WorkHours(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}
	d := c.calendar.WorkHoursInRange(start.In(c.location), end.In(c.location))
	return lifecycle.RoundHours(d.Hours())
}

// IsWorkTime reports whether t falls inside business hours.
func (c *Clock) IsWorkTime(t time.Time) bool {
	return c.calendar.IsWorkTime(t.In(c.location))
}

// BusinessDuration is the ticket's open time measured in business hours. Open tickets report zero.
func (c *Clock) BusinessDuration(ticket *domain.Ticket) float64 {
	if ticket == nil || ticket.ClosedAt == nil {
		return 0
	}
	return c.WorkHours(ticket.CreatedAt, *ticket.ClosedAt)
}

// Overdue reports whether an unfinished, SLA-bound ticket has passed its due date.
func Overdue(ticket *domain.Ticket, now time.Time) bool {
	if ticket == nil || ticket.IsProject || ticket.DueAt == nil {
		return false
	}
	if ticket.Status.Finished() {
		return false
	}
	return now.After(*ticket.DueAt)
}

// NeedsBreachNotice is Overdue restricted to tickets not yet flagged by the sweeper.
func NeedsBreachNotice(ticket *domain.Ticket, now time.Time) bool {
	return Overdue(ticket, now) && ticket.SLABreachNotifiedAt == nil
}

func parseHoliday(raw string) (*cal.Holiday, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	var year int
	switch len(parts) {
	case 2:
	case 3:
		y, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q", raw)
		}
		year = y
		parts = parts[1:]
	default:
		return nil, fmt.Errorf("invalid holiday %q", raw)
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid holiday month %q", raw)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return nil, fmt.Errorf("invalid holiday day %q", raw)
	}

	return &cal.Holiday{
		Name:      raw,
		Type:      cal.ObservancePublic,
		Month:     time.Month(month),
		Day:       day,
		Func:      cal.CalcDayOfMonth,
		StartYear: year,
		EndYear:   year,
	}, nil
}
