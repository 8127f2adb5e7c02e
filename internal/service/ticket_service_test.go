package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketera/helpdesk-service/internal/config"
	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/events"
	"github.com/ticketera/helpdesk-service/internal/lifecycle"
	"github.com/ticketera/helpdesk-service/internal/repository"
	"github.com/ticketera/helpdesk-service/internal/sla"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

var fixedNow = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

type ticketHarness struct {
	svc        *TicketService
	tickets    *fakeTickets
	meetings   *fakeMeetings
	kanban     *fakeKanban
	history    *fakeHistory
	calendar   *fakeCalendar
	dispatcher *recordingDispatcher
	now        *time.Time
}

var (
	staffRole = domain.Role{ID: "role-support", Name: "Soporte", PriorityWeight: 0, CanAccessAllTickets: true}
	userRole  = domain.Role{ID: "role-user", Name: "Usuario", PriorityWeight: 1}
	bossRole  = domain.Role{ID: "role-boss", Name: "Gerencia", PriorityWeight: 2}
)

func requesterActor() domain.Actor {
	role := userRole
	return domain.Actor{AccountID: "acc-1", EmployeeID: "emp-1", Role: &role}
}

func otherActor() domain.Actor {
	role := userRole
	return domain.Actor{AccountID: "acc-3", EmployeeID: "emp-3", Role: &role}
}

func supportActor() domain.Actor {
	role := staffRole
	return domain.Actor{AccountID: "acc-2", EmployeeID: "emp-2", Role: &role}
}

func newTicketHarness(t *testing.T) *ticketHarness {
	t.Helper()
	now := fixedNow
	h := &ticketHarness{
		tickets:    newFakeTickets(),
		meetings:   &fakeMeetings{items: map[string]domain.Meeting{}},
		kanban:     &fakeKanban{entries: map[string]domain.KanbanEntry{}},
		history:    &fakeHistory{},
		calendar:   &fakeCalendar{eventID: "evt-123"},
		dispatcher: newRecordingDispatcher(),
		now:        &now,
	}
	categories := &fakeCategories{items: map[string]*domain.Category{
		"cat-hw":   {ID: "cat-hw", Name: "Hardware", SLAHours: 24},
		"cat-fast": {ID: "cat-fast", Name: "Redes", SLAHours: 4},
	}}
	employees := &fakeEmployees{items: map[string]*domain.Employee{
		"emp-1": {ID: "emp-1", AccountID: "acc-1", Email: "ana@example.com", Role: userRole},
		"emp-2": {ID: "emp-2", AccountID: "acc-2", Email: "soporte.ti@example.com", Role: staffRole},
		"emp-3": {ID: "emp-3", AccountID: "acc-3", Email: "luis@example.com", Role: userRole},
		"emp-4": {ID: "emp-4", AccountID: "acc-4", Email: "gerente@example.com", Role: bossRole},
	}}
	clock, err := sla.NewClock(config.SLAConfig{BusinessHoursStart: 9, BusinessHoursEnd: 18, BusinessTimeZone: "UTC"})
	require.NoError(t, err)

	h.svc = NewTicketService(TicketDependencies{
		TicketRepo:     h.tickets,
		CategoryRepo:   categories,
		EmployeeRepo:   employees,
		MeetingRepo:    h.meetings,
		KanbanRepo:     h.kanban,
		HistoryRepo:    h.history,
		Tx:             &fakeTx{},
		Lifecycle:      lifecycle.NewManager(func() time.Time { return *h.now }),
		Calendar:       h.calendar,
		Clock:          clock,
		Dispatcher:     h.dispatcher,
		SupportAddress: "soporte@example.com",
	})
	return h
}

func (h *ticketHarness) create(t *testing.T, actor domain.Actor, description string) *domain.Ticket {
	t.Helper()
	ticket, err := h.svc.CreateTicket(context.Background(), actor, CreateTicketInput{
		CategoryID:  "cat-hw",
		Title:       "Equipo",
		Description: description,
	})
	require.NoError(t, err)
	return ticket
}

func statusPtr(s domain.TicketStatus) *domain.TicketStatus { return &s }

func TestCreateTicket_ComputesPriorityAndDueDate(t *testing.T) {
	h := newTicketHarness(t)

	ticket := h.create(t, requesterActor(), "El servidor está caído en producción")

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, 1, ticket.Priority)
	require.NotNil(t, ticket.DueAt)
	assert.True(t, ticket.DueAt.Equal(fixedNow.Add(24*time.Hour)))
	assert.Nil(t, ticket.ClosedAt)
	assert.Regexp(t, `^TCK-[0-9A-F]{8}$`, ticket.ExternalKey)
	assert.Equal(t, domain.TicketStatusOpen, h.kanban.entries[ticket.ID].Column)
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, h.dispatcher.types())
}

func TestCreateTicket_RoleWeightRaisesUrgency(t *testing.T) {
	h := newTicketHarness(t)
	role := bossRole
	boss := domain.Actor{AccountID: "acc-4", EmployeeID: "emp-4", Role: &role}

	ticket := h.create(t, boss, "Necesito un mouse nuevo")

	assert.Equal(t, 2, ticket.Priority)
}

func TestCreateTicket_ProjectHasNoDueDate(t *testing.T) {
	h := newTicketHarness(t)

	ticket, err := h.svc.CreateTicket(context.Background(), requesterActor(), CreateTicketInput{
		CategoryID: "cat-hw", Title: "Migración", Description: "Migrar correo", IsProject: true,
	})

	require.NoError(t, err)
	assert.Nil(t, ticket.DueAt)
}

func TestCreateTicket_StripsMarkup(t *testing.T) {
	h := newTicketHarness(t)

	ticket := h.create(t, requesterActor(), `<b>Impresora</b> "sala 3" <script>alert(1)</script>`)

	assert.Equal(t, `Impresora "sala 3"`, ticket.Description)
}

func TestCreateTicket_Rejections(t *testing.T) {
	h := newTicketHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreateTicket(ctx, domain.Actor{AccountID: "acc-9", IsSuperuser: true}, CreateTicketInput{CategoryID: "cat-hw", Title: "x", Description: "y"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = h.svc.CreateTicket(ctx, requesterActor(), CreateTicketInput{CategoryID: "missing", Title: "x", Description: "y"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = h.svc.CreateTicket(ctx, requesterActor(), CreateTicketInput{CategoryID: "cat-hw", Title: "x", Description: "<p></p>"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Empty(t, h.tickets.items)
}

func TestGetTicket_AccessControl(t *testing.T) {
	h := newTicketHarness(t)
	ctx := context.Background()
	ticket := h.create(t, requesterActor(), "No funciona el teclado")

	_, err := h.svc.GetTicket(ctx, requesterActor(), ticket.ID)
	assert.NoError(t, err)
	_, err = h.svc.GetTicket(ctx, supportActor(), ticket.ID)
	assert.NoError(t, err)
	_, err = h.svc.GetTicket(ctx, otherActor(), ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = h.svc.GetTicket(ctx, requesterActor(), "ticket-404")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestListTickets_ScopesNonPrivilegedActors(t *testing.T) {
	h := newTicketHarness(t)
	ctx := context.Background()
	h.create(t, requesterActor(), "uno")
	h.create(t, requesterActor(), "dos")
	h.create(t, otherActor(), "tres")

	own, err := h.svc.ListTickets(ctx, requesterActor(), repository.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, own.Total)
	assert.Equal(t, repository.DefaultTicketLimit, own.Limit)

	all, err := h.svc.ListTickets(ctx, supportActor(), repository.TicketFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, repository.MaxTicketLimit, all.Limit)

	_, err = h.svc.ListTickets(ctx, supportActor(), repository.TicketFilter{OrderBy: "title"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdateTicket_CloseStampIsSetOnce(t *testing.T) {
	h := newTicketHarness(t)
	ctx := context.Background()
	ticket := h.create(t, requesterActor(), "Pantalla rota")

	*h.now = fixedNow.Add(5 * time.Hour)
	resolved, err := h.svc.UpdateTicket(ctx, supportActor(), ticket.ID, lifecycle.Changes{Status: statusPtr(domain.TicketStatusResolved)})
	require.NoError(t, err)
	require.NotNil(t, resolved.ClosedAt)
	firstStamp := *resolved.ClosedAt
	assert.True(t, firstStamp.Equal(fixedNow.Add(5*time.Hour)))
	assert.Equal(t, domain.TicketStatusResolved, h.kanban.entries[ticket.ID].Column)

	*h.now = fixedNow.Add(48 * time.Hour)
	closed, err := h.svc.UpdateTicket(ctx, supportActor(), ticket.ID, lifecycle.Changes{Status: statusPtr(domain.TicketStatusClosed)})
	require.NoError(t, err)
	assert.True(t, closed.ClosedAt.Equal(firstStamp))

	stored := h.tickets.stored(ticket.ID)
	assert.True(t, stored.ClosedAt.Equal(firstStamp))
	assert.Equal(t, []domain.TicketChangeType{domain.ChangeTypeStatus, domain.ChangeTypeStatus}, h.history.types())

	d, err := h.svc.TicketDuration(ctx, requesterActor(), ticket.ID)
	require.NoError(t, err)
	assert.True(t, d.Closed)
	assert.Equal(t, 5.0, d.Hours)
	assert.Equal(t, 5.0, d.BusinessHours)
}

func TestUpdateTicket_PriorityRequiresPrivilege(t *testing.T) {
	h := newTicketHarness(t)
	ctx := context.Background()
	ticket := h.create(t, requesterActor(), "Mouse")
	p := 1

	_, err := h.svc.UpdateTicket(ctx, requesterActor(), ticket.ID, lifecycle.Changes{Priority: &p})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.Equal(t, ticket.Priority, h.tickets.stored(ticket.ID).Priority)

	updated, err := h.svc.UpdateTicket(ctx, supportActor(), ticket.ID, lifecycle.Changes{Priority: &p})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Priority)
	assert.Equal(t, []domain.TicketChangeType{domain.ChangeTypePriority}, h.history.types())
	assert.Contains(t, h.dispatcher.types(), events.EventTicketPriorityChanged)
}

func TestUpdateTicket_AssigneeMustExist(t *testing.T) {
	h := newTicketHarness(t)
	ctx := context.Background()
	ticket := h.create(t, requesterActor(), "Mouse")
	missing := "emp-404"
	assignee := "emp-2"

	_, err := h.svc.UpdateTicket(ctx, supportActor(), ticket.ID, lifecycle.Changes{AssigneeID: &missing})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	updated, err := h.svc.UpdateTicket(ctx, supportActor(), ticket.ID, lifecycle.Changes{AssigneeID: &assignee})
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, "emp-2", *updated.AssigneeID)
}

func TestUpdateTicket_CategoryChangeRecomputesDueDate(t *testing.T) {
	h := newTicketHarness(t)
	ctx := context.Background()
	ticket := h.create(t, requesterActor(), "Sin red")
	fast := "cat-fast"

	*h.now = fixedNow.Add(2 * time.Hour)
	updated, err := h.svc.UpdateTicket(ctx, requesterActor(), ticket.ID, lifecycle.Changes{CategoryID: &fast})

	require.NoError(t, err)
	require.NotNil(t, updated.DueAt)
	assert.True(t, updated.DueAt.Equal(fixedNow.Add(4*time.Hour)))
	assert.Equal(t, []domain.TicketChangeType{domain.ChangeTypeSLA}, h.history.types())
}

func TestUpdateTicket_EmptyChanges(t *testing.T) {
	h := newTicketHarness(t)
	ticket := h.create(t, requesterActor(), "Mouse")

	_, err := h.svc.UpdateTicket(context.Background(), supportActor(), ticket.ID, lifecycle.Changes{})

	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestScheduleMeeting_Success(t *testing.T) {
	h := newTicketHarness(t)
	ctx := context.Background()
	ticket := h.create(t, requesterActor(), "Instalar software")
	start := fixedNow.Add(24 * time.Hour)
	end := start.Add(30 * time.Minute)

	meeting, err := h.svc.ScheduleMeeting(ctx, requesterActor(), ticket.ID, start, end)

	require.NoError(t, err)
	assert.Equal(t, "evt-123", meeting.EventID)
	assert.True(t, meeting.StartsAt.Equal(start))
	assert.Equal(t, []string{"ana@example.com", "soporte@example.com"}, h.calendar.attendees)
	assert.Contains(t, h.calendar.subject, ticket.Title)

	stored := h.tickets.stored(ticket.ID)
	assert.Equal(t, domain.TicketStatusScheduled, stored.Status)
	assert.Equal(t, domain.TicketStatusScheduled, h.kanban.entries[ticket.ID].Column)
	assert.Equal(t, []domain.TicketChangeType{domain.ChangeTypeMeeting, domain.ChangeTypeStatus}, h.history.types())
	assert.Contains(t, h.dispatcher.types(), events.EventTicketMeetingScheduled)

	got, err := h.svc.GetMeeting(ctx, requesterActor(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, meeting.ID, got.ID)
}

func TestScheduleMeeting_CalendarFailureLeavesTicketUntouched(t *testing.T) {
	h := newTicketHarness(t)
	ctx := context.Background()
	ticket := h.create(t, requesterActor(), "Instalar software")
	h.calendar.err = apperrors.NewExternalServiceError("calendar", errors.New("timeout"))
	start := fixedNow.Add(time.Hour)

	_, err := h.svc.ScheduleMeeting(ctx, requesterActor(), ticket.ID, start, start.Add(time.Hour))

	assert.True(t, apperrors.HasCode(err, apperrors.CodeExternalService))
	assert.Equal(t, domain.TicketStatusOpen, h.tickets.stored(ticket.ID).Status)
	assert.Zero(t, h.tickets.updates)
	assert.Empty(t, h.meetings.items)
	assert.Empty(t, h.history.entries)
}

func TestScheduleMeeting_Rejections(t *testing.T) {
	h := newTicketHarness(t)
	ctx := context.Background()
	ticket := h.create(t, requesterActor(), "Instalar software")
	start := fixedNow.Add(time.Hour)

	_, err := h.svc.ScheduleMeeting(ctx, requesterActor(), ticket.ID, start, start)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = h.svc.ScheduleMeeting(ctx, otherActor(), ticket.ID, start, start.Add(time.Hour))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.Zero(t, h.calendar.calls)

	_, err = h.svc.ScheduleMeeting(ctx, requesterActor(), ticket.ID, start, start.Add(time.Hour))
	require.NoError(t, err)
	_, err = h.svc.ScheduleMeeting(ctx, requesterActor(), ticket.ID, start, start.Add(time.Hour))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Equal(t, 1, h.calendar.calls)
}

func TestScheduleMeeting_FinishedTicket(t *testing.T) {
	h := newTicketHarness(t)
	ctx := context.Background()
	ticket := h.create(t, requesterActor(), "Instalar software")
	_, err := h.svc.UpdateTicket(ctx, supportActor(), ticket.ID, lifecycle.Changes{Status: statusPtr(domain.TicketStatusResolved)})
	require.NoError(t, err)

	_, err = h.svc.ScheduleMeeting(ctx, requesterActor(), ticket.ID, fixedNow.Add(time.Hour), fixedNow.Add(2*time.Hour))

	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Zero(t, h.calendar.calls)
}

func TestTicketDuration_OpenTicket(t *testing.T) {
	h := newTicketHarness(t)
	ticket := h.create(t, requesterActor(), "Mouse")

	d, err := h.svc.TicketDuration(context.Background(), requesterActor(), ticket.ID)

	require.NoError(t, err)
	assert.False(t, d.Closed)
	assert.Zero(t, d.Hours)
}

func TestHistory_RequiresAccess(t *testing.T) {
	h := newTicketHarness(t)
	ticket := h.create(t, requesterActor(), "Mouse")

	_, err := h.svc.History(context.Background(), otherActor(), ticket.ID)

	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
