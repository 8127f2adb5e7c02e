package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ticketera/helpdesk-service/internal/config"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

type graphStub struct {
	tokenCalls  atomic.Int32
	eventCalls  atomic.Int32
	tokenStatus int
	eventStatus int
	eventDelay  time.Duration

	mu        sync.Mutex
	lastEvent eventRequest
	lastAuth  string
	lastPath  string
}

func (g *graphStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		g.tokenCalls.Add(1)
		if g.tokenStatus != 0 {
			w.WriteHeader(g.tokenStatus)
			return
		}
		_ = r.ParseForm()
		if r.Form.Get("grant_type") != "client_credentials" || r.Form.Get("scope") != GraphScope {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"app-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1.0/users/", func(w http.ResponseWriter, r *http.Request) {
		g.eventCalls.Add(1)
		g.mu.Lock()
		g.lastAuth = r.Header.Get("Authorization")
		g.lastPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&g.lastEvent)
		g.mu.Unlock()
		if g.eventDelay > 0 {
			time.Sleep(g.eventDelay)
		}
		if g.eventStatus != 0 {
			w.WriteHeader(g.eventStatus)
			_, _ = w.Write([]byte(`{"error":{"code":"ErrorAccessDenied"}}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"AAMkAGI2event"}`))
	})
	return mux
}

func newTestClient(t *testing.T, stub *graphStub) *GraphClient {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	client, err := NewGraphClient(config.CalendarConfig{
		TenantID:       "tenant",
		ClientID:       "client",
		ClientSecret:   "secret",
		TokenURL:       srv.URL + "/token",
		GraphBaseURL:   srv.URL + "/v1.0/",
		Mailbox:        "helpdesk@example.com",
		TimeZone:       "America/Santiago",
		TimeoutSeconds: 15,
	}, zap.NewNop(), nil)
	require.NoError(t, err)
	return client
}

func TestCreateAttendanceEvent(t *testing.T) {
	stub := &graphStub{}
	client := newTestClient(t, stub)

	start := time.Date(2025, 7, 1, 14, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	id, err := client.CreateAttendanceEvent(context.Background(), "Atención ticket: Printer", start, end,
		[]string{"ana@example.com", " ", "soporte@example.com"})
	require.NoError(t, err)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Equal(t, "AAMkAGI2event", id)
	assert.Equal(t, "Bearer app-token", stub.lastAuth)
	assert.Equal(t, "/v1.0/users/helpdesk@example.com/events", stub.lastPath)
	assert.Equal(t, "Atención ticket: Printer", stub.lastEvent.Subject)
	// Santiago is UTC-4 in July.
	assert.Equal(t, "2025-07-01T10:00:00", stub.lastEvent.Start.DateTime)
	assert.Equal(t, "2025-07-01T10:30:00", stub.lastEvent.End.DateTime)
	assert.Equal(t, "America/Santiago", stub.lastEvent.Start.TimeZone)
	require.Len(t, stub.lastEvent.Attendees, 2)
	assert.Equal(t, "ana@example.com", stub.lastEvent.Attendees[0].EmailAddress.Address)
	assert.Equal(t, "required", stub.lastEvent.Attendees[1].Type)
}

func TestCreateAttendanceEventReusesToken(t *testing.T) {
	stub := &graphStub{}
	client := newTestClient(t, stub)
	start := time.Date(2025, 7, 1, 14, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := client.CreateAttendanceEvent(context.Background(), "s", start, start.Add(time.Hour), []string{"a@example.com"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), stub.tokenCalls.Load())
	assert.Equal(t, int32(3), stub.eventCalls.Load())
}

func TestCreateAttendanceEventFailures(t *testing.T) {
	tests := []struct {
		name  string
		stub  *graphStub
		setup func(c *GraphClient)
	}{
		{name: "token rejected", stub: &graphStub{tokenStatus: http.StatusUnauthorized}},
		{name: "graph error", stub: &graphStub{eventStatus: http.StatusForbidden}},
		{
			name:  "timeout",
			stub:  &graphStub{eventDelay: 300 * time.Millisecond},
			setup: func(c *GraphClient) { c.timeout = 50 * time.Millisecond },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.stub)
			if tt.setup != nil {
				tt.setup(client)
			}
			start := time.Date(2025, 7, 1, 14, 0, 0, 0, time.UTC)

			id, err := client.CreateAttendanceEvent(context.Background(), "s", start, start.Add(time.Hour), []string{"a@example.com"})
			assert.Empty(t, id)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeExternalService))
		})
	}
}

func TestDisabledClient(t *testing.T) {
	_, err := Disabled{}.CreateAttendanceEvent(context.Background(), "s", time.Now(), time.Now().Add(time.Hour), nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeExternalService))
}
