// Package priority scores new tickets and derives their SLA due dates.
package priority

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/ticketera/helpdesk-service/internal/domain"
)

const basePriority = 3

// maxRoleAdjustment caps how far the requester's role alone can move a ticket.
const maxRoleAdjustment = 2

// Keyword is a trigger phrase and the delta it applies when found in a description.
type Keyword struct {
	Phrase string
	Delta  int
}

// Keywords is the trigger table. Every phrase found in a description contributes its delta,
// so the result does not depend on the order of this slice.
var Keywords = []Keyword{
	{Phrase: "bloqueado", Delta: -2},
	{Phrase: "bloqueada", Delta: -2},
	{Phrase: "blocked", Delta: -2},
	{Phrase: "producción", Delta: -2},
	{Phrase: "production", Delta: -2},
	{Phrase: "no funciona", Delta: -1},
	{Phrase: "not working", Delta: -1},
	{Phrase: "error crítico", Delta: -3},
	{Phrase: "critical error", Delta: -3},
	{Phrase: "urgente", Delta: -3},
	{Phrase: "urgent", Delta: -3},
	{Phrase: "falla", Delta: -1},
	{Phrase: "failure", Delta: -1},
	{Phrase: "caído", Delta: -2},
	{Phrase: "down", Delta: -2},
	{Phrase: "outage", Delta: -2},
}

// ComputePriority returns the urgency score in [1,5] for a new ticket. Lower is more urgent.
// The second argument is the category SLA in hours. It feeds the due date, not the score.
func ComputePriority(roleWeight, _ int, description string) int {
	return Clamp(RawScore(roleWeight, description))
}

// RawScore is the score before clamping. Keyword deltas compound here.
func RawScore(roleWeight int, description string) int {
	score := basePriority - RoleAdjustment(roleWeight)
	for _, kw := range MatchKeywords(description) {
		score += kw.Delta
	}
	return score
}

// RoleAdjustment returns how many levels the role weight moves a ticket towards urgent.
func RoleAdjustment(roleWeight int) int {
	if roleWeight <= 0 {
		return 0
	}
	return min(maxRoleAdjustment, roleWeight/2)
}

// MatchKeywords returns the table entries found in description, in table order.
func MatchKeywords(description string) []Keyword {
	text := normalize(description)
	if text == "" {
		return nil
	}
	var matched []Keyword
	for _, kw := range Keywords {
		if strings.Contains(text, normalize(kw.Phrase)) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// Clamp bounds a raw score to the valid priority range.
func Clamp(score int) int {
	return max(domain.PriorityHighest, min(domain.PriorityLowest, score))
}

// ComputeDueDate returns the SLA deadline for a ticket created at createdAt.
func ComputeDueDate(createdAt time.Time, slaHours int) time.Time {
	return createdAt.UTC().Add(time.Duration(slaHours) * time.Hour)
}

// DueDateFor returns nil for project tickets, which are exempt from SLA tracking.
func DueDateFor(createdAt time.Time, slaHours int, isProject bool) *time.Time {
	if isProject {
		return nil
	}
	due := ComputeDueDate(createdAt, slaHours)
	return &due
}

func normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
