package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ticketera/helpdesk-service/internal/api/dto"
	"github.com/ticketera/helpdesk-service/internal/auth"
	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/repository"
	"github.com/ticketera/helpdesk-service/internal/sla"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

// pathID reads a route id. A value that is not a UUID names no resource, so it is NOT_FOUND.
func pathID(c *fiber.Ctx, key, resource string) (string, error) {
	id := c.Params(key)
	if !validUUID(id) {
		return "", apperrors.NewNotFound(resource, map[string]any{key: id})
	}
	return id, nil
}

// checkIDs rejects body or query ids that are not UUIDs. Nil or empty values are left to
// the required-field checks.
func checkIDs(fields map[string]*string) error {
	for field, id := range fields {
		if id != nil && *id != "" && !validUUID(*id) {
			return apperrors.NewValidationError("malformed identifier", map[string]any{field: *id})
		}
	}
	return nil
}

func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseTime(val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return defaultVal
	}
	return parsed
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		return &v
	}
	return nil
}

// parseTicketFilter reads listing filters from the query string:
// status, priority (comma lists), category_id, assignee_id, requester_id, search,
// created_from, created_to (RFC 3339), ordering, limit, offset.
func parseTicketFilter(c *fiber.Ctx) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		RequesterID: optionalQuery(c, "requester_id"),
		AssigneeID:  optionalQuery(c, "assignee_id"),
		CategoryID:  optionalQuery(c, "category_id"),
		Search:      strings.TrimSpace(c.Query("search")),
		OrderBy:     c.Query("ordering"),
		Limit:       parseIntQuery(c, "limit", repository.DefaultTicketLimit),
		Offset:      parseIntQuery(c, "offset", 0),
	}
	if err := checkIDs(map[string]*string{
		"requester_id": filter.RequesterID,
		"assignee_id":  filter.AssigneeID,
		"category_id":  filter.CategoryID,
	}); err != nil {
		return filter, err
	}
	for _, s := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(s)))
	}
	for _, p := range splitList(c.Query("priority")) {
		n, err := strconv.Atoi(p)
		if err != nil || n < domain.PriorityHighest || n > domain.PriorityLowest {
			return filter, apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": p})
		}
		filter.Priorities = append(filter.Priorities, n)
	}
	var err error
	if filter.CreatedFrom, err = parseTime(c.Query("created_from")); err != nil {
		return filter, apperrors.NewValidationError("created_from must be RFC 3339", nil)
	}
	if filter.CreatedTo, err = parseTime(c.Query("created_to")); err != nil {
		return filter, apperrors.NewValidationError("created_to must be RFC 3339", nil)
	}
	return filter, nil
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		ExternalKey: ticket.ExternalKey,
		RequesterID: ticket.RequesterID,
		AssigneeID:  ticket.AssigneeID,
		CategoryID:  ticket.CategoryID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		IsProject:   ticket.IsProject,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		DueAt:       ticket.DueAt,
		ClosedAt:    ticket.ClosedAt,
		Overdue:     sla.Overdue(ticket, time.Now()),
	}
}

func meetingResponse(m *domain.Meeting) dto.MeetingResponse {
	return dto.MeetingResponse{
		ID:        m.ID,
		TicketID:  m.TicketID,
		StartsAt:  m.StartsAt,
		EndsAt:    m.EndsAt,
		EventID:   m.EventID,
		CreatedAt: m.CreatedAt,
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.HistoryResponse {
	resp := make([]dto.HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.HistoryResponse{
			ID:         entry.ID,
			ChangeType: entry.ChangeType,
			ChangedBy:  entry.ChangedBy,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}

func roleResponse(role *domain.Role) dto.RoleResponse {
	return dto.RoleResponse{
		ID:                  role.ID,
		Name:                role.Name,
		PriorityWeight:      role.PriorityWeight,
		CanAccessAllTickets: role.CanAccessAllTickets,
		CreatedAt:           role.CreatedAt,
	}
}

func categoryResponse(category *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		SLAHours:  category.SLAHours,
		CreatedAt: category.CreatedAt,
	}
}

func employeeResponse(e *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:         e.ID,
		AccountID:  e.AccountID,
		Username:   e.Username,
		Email:      e.Email,
		Department: e.Department,
		Role:       roleResponse(&e.Role),
		CreatedAt:  e.CreatedAt,
	}
}

func commentResponse(cm *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        cm.ID,
		TicketID:  cm.TicketID,
		AuthorID:  cm.AuthorID,
		Message:   cm.Message,
		CreatedAt: cm.CreatedAt,
	}
}

func attachmentResponse(a *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:         a.ID,
		TicketID:   a.TicketID,
		UploadedBy: a.UploadedBy,
		StorageKey: a.StorageKey,
		FileName:   a.FileName,
		MimeType:   a.MimeType,
		SizeBytes:  a.SizeBytes,
		CreatedAt:  a.CreatedAt,
	}
}

func evaluationResponse(e *domain.Evaluation) dto.EvaluationResponse {
	return dto.EvaluationResponse{
		ID:        e.ID,
		TicketID:  e.TicketID,
		Score:     e.Score,
		Comment:   e.Comment,
		CreatedAt: e.CreatedAt,
	}
}
