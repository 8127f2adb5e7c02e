package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/events"
	"github.com/ticketera/helpdesk-service/internal/repository"
)

type fakeTx struct {
	calls int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeTickets struct {
	mu      sync.Mutex
	items   map[string]*domain.Ticket
	seq     int
	updates int
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{items: map[string]*domain.Ticket{}}
}

func (f *fakeTickets) put(t domain.Ticket) *domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := t
	f.items[t.ID] = &c
	return &c
}

func (f *fakeTickets) stored(id string) domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.items[id]
}

func (f *fakeTickets) Create(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t.ID = fmt.Sprintf("ticket-%d", f.seq)
	c := *t
	f.items[t.ID] = &c
	return nil
}

func (f *fakeTickets) Update(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.items[t.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if cur.ClosedAt != nil {
		t.ClosedAt = cur.ClosedAt
	}
	f.updates++
	c := *t
	f.items[t.ID] = &c
	return nil
}

func (f *fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *t
	return &c, nil
}

func (f *fakeTickets) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeTickets) matching(filter repository.TicketFilter) []domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.items {
		if filter.RequesterID != nil && t.RequesterID != *filter.RequesterID {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	all := f.matching(filter)
	if filter.Offset >= len(all) {
		return nil, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (f *fakeTickets) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	return len(f.matching(filter)), nil
}

func (f *fakeTickets) ListOverdue(_ context.Context, now time.Time, limit int) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.items {
		if t.DueAt != nil && !t.IsProject && !t.Status.Finished() && t.DueAt.Before(now) && t.SLABreachNotifiedAt == nil {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTickets) CountOverdue(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.items {
		if t.DueAt != nil && !t.IsProject && !t.Status.Finished() && t.DueAt.Before(now) {
			n++
		}
	}
	return n, nil
}

func (f *fakeTickets) MarkSLABreachNotified(_ context.Context, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok || t.SLABreachNotifiedAt != nil {
		return false, nil
	}
	t.SLABreachNotifiedAt = &at
	return true, nil
}

type fakeCategories struct {
	items map[string]*domain.Category
}

func (f *fakeCategories) Create(_ context.Context, c *domain.Category) error {
	c.ID = fmt.Sprintf("cat-%d", len(f.items)+1)
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCategories) Update(_ context.Context, c *domain.Category) error {
	if _, ok := f.items[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCategories) GetByID(_ context.Context, id string) (*domain.Category, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategories) List(context.Context) ([]domain.Category, error) {
	var out []domain.Category
	for _, c := range f.items {
		out = append(out, *c)
	}
	return out, nil
}

type fakeRoles struct {
	items map[string]*domain.Role
}

func (f *fakeRoles) Create(_ context.Context, r *domain.Role) error {
	r.ID = fmt.Sprintf("role-%d", len(f.items)+1)
	cp := *r
	f.items[r.ID] = &cp
	return nil
}

func (f *fakeRoles) Update(_ context.Context, r *domain.Role) error {
	if _, ok := f.items[r.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *r
	f.items[r.ID] = &cp
	return nil
}

func (f *fakeRoles) GetByID(_ context.Context, id string) (*domain.Role, error) {
	r, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRoles) List(context.Context) ([]domain.Role, error) {
	var out []domain.Role
	for _, r := range f.items {
		out = append(out, *r)
	}
	return out, nil
}

type fakeEmployees struct {
	items map[string]*domain.Employee
}

func (f *fakeEmployees) Create(_ context.Context, e *domain.Employee) error {
	e.ID = fmt.Sprintf("emp-%d", len(f.items)+1)
	cp := *e
	f.items[e.ID] = &cp
	return nil
}

func (f *fakeEmployees) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	e, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEmployees) GetByAccountID(_ context.Context, accountID string) (*domain.Employee, error) {
	for _, e := range f.items {
		if e.AccountID == accountID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeAccounts struct {
	items map[string]*domain.Account
}

func (f *fakeAccounts) Create(_ context.Context, a *domain.Account) error {
	a.ID = fmt.Sprintf("acc-%d", len(f.items)+1)
	cp := *a
	f.items[a.ID] = &cp
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	for _, a := range f.items {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeMeetings struct {
	items map[string]domain.Meeting
}

func (f *fakeMeetings) Create(_ context.Context, m *domain.Meeting) error {
	if _, ok := f.items[m.TicketID]; ok {
		return fmt.Errorf("duplicate meeting")
	}
	m.ID = "meeting-" + m.TicketID
	f.items[m.TicketID] = *m
	return nil
}

func (f *fakeMeetings) GetByTicket(_ context.Context, ticketID string) (*domain.Meeting, error) {
	m, ok := f.items[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &m, nil
}

func (f *fakeMeetings) ExistsForTicket(_ context.Context, ticketID string) (bool, error) {
	_, ok := f.items[ticketID]
	return ok, nil
}

type fakeKanban struct {
	entries map[string]domain.KanbanEntry
	moves   int
}

func (f *fakeKanban) Create(_ context.Context, e *domain.KanbanEntry) error {
	f.entries[e.TicketID] = *e
	return nil
}

func (f *fakeKanban) Get(_ context.Context, ticketID string) (*domain.KanbanEntry, error) {
	e, ok := f.entries[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (f *fakeKanban) SyncColumn(_ context.Context, ticketID string, column domain.TicketStatus) error {
	e, ok := f.entries[ticketID]
	if !ok {
		return nil
	}
	e.Column = column
	f.entries[ticketID] = e
	return nil
}

func (f *fakeKanban) Move(_ context.Context, ticketID string, column domain.TicketStatus, position int) error {
	if _, ok := f.entries[ticketID]; !ok {
		return pgx.ErrNoRows
	}
	f.moves++
	f.entries[ticketID] = domain.KanbanEntry{TicketID: ticketID, Column: column, Position: position}
	return nil
}

func (f *fakeKanban) Board(_ context.Context, requesterID *string) ([]domain.KanbanCard, error) {
	var cards []domain.KanbanCard
	for _, e := range f.entries {
		cards = append(cards, domain.KanbanCard{KanbanEntry: e, RequesterID: "emp-1"})
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].TicketID < cards[j].TicketID })
	if requesterID == nil {
		return cards, nil
	}
	var own []domain.KanbanCard
	for _, c := range cards {
		if c.RequesterID == *requesterID {
			own = append(own, c)
		}
	}
	return own, nil
}

type fakeHistory struct {
	entries []domain.TicketHistory
}

func (f *fakeHistory) Create(_ context.Context, h *domain.TicketHistory) error {
	h.ID = fmt.Sprintf("hist-%d", len(f.entries)+1)
	f.entries = append(f.entries, *h)
	return nil
}

func (f *fakeHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	var out []domain.TicketHistory
	for _, h := range f.entries {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHistory) types() []domain.TicketChangeType {
	var out []domain.TicketChangeType
	for _, h := range f.entries {
		out = append(out, h.ChangeType)
	}
	return out
}

type fakeComments struct {
	items []domain.Comment
}

func (f *fakeComments) Create(_ context.Context, c *domain.Comment) error {
	c.ID = fmt.Sprintf("comment-%d", len(f.items)+1)
	f.items = append(f.items, *c)
	return nil
}

func (f *fakeComments) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range f.items {
		if c.TicketID == ticketID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeAttachments struct {
	items []domain.Attachment
}

func (f *fakeAttachments) Create(_ context.Context, a *domain.Attachment) error {
	a.ID = fmt.Sprintf("att-%d", len(f.items)+1)
	f.items = append(f.items, *a)
	return nil
}

func (f *fakeAttachments) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, a := range f.items {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeEvaluations struct {
	items map[string]domain.Evaluation
}

func (f *fakeEvaluations) Create(_ context.Context, e *domain.Evaluation) error {
	e.ID = "eval-" + e.TicketID
	f.items[e.TicketID] = *e
	return nil
}

func (f *fakeEvaluations) GetByTicket(_ context.Context, ticketID string) (*domain.Evaluation, error) {
	e, ok := f.items[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

type fakeCalendar struct {
	calls     int
	subject   string
	start     time.Time
	end       time.Time
	attendees []string
	eventID   string
	err       error
}

func (f *fakeCalendar) CreateAttendanceEvent(_ context.Context, subject string, start, end time.Time, attendees []string) (string, error) {
	f.calls++
	f.subject, f.start, f.end, f.attendees = subject, start, end, attendees
	if f.err != nil {
		return "", f.err
	}
	return f.eventID, nil
}

type recordingDispatcher struct {
	events.Dispatcher
	published []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher()}
}

func (r *recordingDispatcher) Publish(ctx context.Context, e events.Event) error {
	r.published = append(r.published, e)
	return r.Dispatcher.Publish(ctx, e)
}

func (r *recordingDispatcher) types() []events.EventType {
	var out []events.EventType
	for _, e := range r.published {
		out = append(out, e.Type)
	}
	return out
}
