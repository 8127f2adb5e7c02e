package priority

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePriority(t *testing.T) {
	tests := []struct {
		name        string
		roleWeight  int
		description string
		want        int
	}{
		{name: "no signals stays at base", roleWeight: 1, description: "Necesito un mouse nuevo", want: 3},
		{name: "zero weight", roleWeight: 0, description: "printer jam", want: 3},
		{name: "weight two moves one level", roleWeight: 2, description: "printer jam", want: 2},
		{name: "weight adjustment is capped", roleWeight: 40, description: "printer jam", want: 1},
		{name: "negative weight ignored", roleWeight: -6, description: "printer jam", want: 3},
		{name: "single soft keyword", roleWeight: 0, description: "VPN not working", want: 2},
		{name: "keyword match is case insensitive", roleWeight: 0, description: "Production OUTAGE", want: 1},
		{name: "spanish example clamps to one", roleWeight: 4, description: "Sistema caído en producción, error crítico", want: 1},
		{name: "empty description", roleWeight: 0, description: "", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputePriority(tt.roleWeight, 24, tt.description))
		})
	}
}

func TestComputePriority_StaysInRange(t *testing.T) {
	descriptions := []string{
		"",
		"hello",
		"urgent blocked production outage down critical error failure not working",
		strings.Repeat("urgent ", 1000),
	}
	for weight := 0; weight <= 20; weight++ {
		for _, sla := range []int{0, 1, 24, 720} {
			for _, desc := range descriptions {
				got := ComputePriority(weight, sla, desc)
				require.GreaterOrEqual(t, got, 1)
				require.LessOrEqual(t, got, 5)
			}
		}
	}
}

func TestComputePriority_SLAHoursDoNotChangeScore(t *testing.T) {
	for _, sla := range []int{0, 1, 24, 720} {
		assert.Equal(t, 2, ComputePriority(2, sla, "printer jam"), "sla %d", sla)
	}
}

func TestKeywordsCompound(t *testing.T) {
	urgent := RawScore(0, "urgent: printer")
	urgentBlocked := RawScore(0, "urgent: printer blocked")

	assert.Equal(t, 0, urgent)
	assert.Equal(t, -2, urgentBlocked)
	assert.Less(t, urgentBlocked, urgent)
	assert.LessOrEqual(t, ComputePriority(0, 24, "urgent blocked"), ComputePriority(0, 24, "urgent"))
}

func TestRawScore_SpanishExample(t *testing.T) {
	// base 3, role -2, caído -2, producción -2, error crítico -3
	assert.Equal(t, -6, RawScore(4, "Sistema caído en producción, error crítico"))
}

func TestMatchKeywords_NormalizesDecomposedAccents(t *testing.T) {
	// "caído" written with a combining acute accent
	decomposed := "el servidor est\u00e1 cai\u0301do"
	matched := MatchKeywords(decomposed)

	require.Len(t, matched, 1)
	assert.Equal(t, "caído", matched[0].Phrase)
}

func TestMatchKeywords_OrderIndependent(t *testing.T) {
	a := MatchKeywords("outage in production")
	b := MatchKeywords("production outage")
	assert.ElementsMatch(t, a, b)
}

func TestRoleAdjustment(t *testing.T) {
	assert.Equal(t, 0, RoleAdjustment(0))
	assert.Equal(t, 0, RoleAdjustment(1))
	assert.Equal(t, 1, RoleAdjustment(3))
	assert.Equal(t, 2, RoleAdjustment(4))
	assert.Equal(t, 2, RoleAdjustment(100))
}

func TestComputeDueDate(t *testing.T) {
	created := time.Date(2025, 3, 14, 22, 30, 0, 0, time.UTC)

	for _, hours := range []int{0, 1, 24, 72, 1000} {
		due := ComputeDueDate(created, hours)
		assert.Equal(t, time.Duration(hours)*time.Hour, due.Sub(created))
	}
}

func TestComputeDueDate_ReturnsUTC(t *testing.T) {
	loc := time.FixedZone("CLT", -3*60*60)
	created := time.Date(2025, 3, 14, 9, 0, 0, 0, loc)

	due := ComputeDueDate(created, 8)
	assert.Equal(t, time.UTC, due.Location())
	assert.Equal(t, 8*time.Hour, due.Sub(created))
}

func TestDueDateFor_ProjectHasNoDueDate(t *testing.T) {
	created := time.Now().UTC()

	assert.Nil(t, DueDateFor(created, 24, true))
	assert.Nil(t, DueDateFor(created, 0, true))

	due := DueDateFor(created, 24, false)
	require.NotNil(t, due)
	assert.Equal(t, 24*time.Hour, due.Sub(created))
}
