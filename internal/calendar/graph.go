// Package calendar creates attendance meetings in Microsoft 365 through the Graph API.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ticketera/helpdesk-service/internal/config"
	"github.com/ticketera/helpdesk-service/internal/observability"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

// GraphScope is the application scope requested with client credentials.
const GraphScope = "https://graph.microsoft.com/.default"

const (
	serviceName    = "calendar"
	graphTimestamp = "2006-01-02T15:04:05"
)

// Client creates calendar events. Any failure is reported as an external service error.
type Client interface {
	CreateAttendanceEvent(ctx context.Context, subject string, start, end time.Time, attendees []string) (string, error)
}

// GraphClient posts events to a mailbox calendar using an app-only token.
type GraphClient struct {
	httpClient *http.Client
	tokens     oauth2.TokenSource
	baseURL    string
	mailbox    string
	timeZone   string
	location   *time.Location
	timeout    time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewGraphClient builds a Graph client. Tokens are cached and refreshed by the token source.
func NewGraphClient(cfg config.CalendarConfig, logger *zap.Logger, metrics *observability.Metrics) (*GraphClient, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load calendar timezone: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Timeout()}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{GraphScope},
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	return &GraphClient{
		httpClient: httpClient,
		tokens:     cc.TokenSource(tokenCtx),
		baseURL:    strings.TrimRight(cfg.GraphBaseURL, "/"),
		mailbox:    cfg.Mailbox,
		timeZone:   cfg.TimeZone,
		location:   loc,
		timeout:    cfg.Timeout(),
		logger:     logger,
		metrics:    metrics,
	}, nil
}

type dateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type attendee struct {
	EmailAddress emailAddress `json:"emailAddress"`
	Type         string       `json:"type"`
}

type eventRequest struct {
	Subject   string       `json:"subject"`
	Start     dateTimeZone `json:"start"`
	End       dateTimeZone `json:"end"`
	Attendees []attendee   `json:"attendees"`
}

type eventResponse struct {
	ID string `json:"id"`
}

// CreateAttendanceEvent creates the event and returns its Graph id. The whole exchange, token
// included, is bounded by the configured timeout.
func (c *GraphClient) CreateAttendanceEvent(ctx context.Context, subject string, start, end time.Time, attendees []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := c.createEvent(ctx, subject, start, end, attendees)
	c.metrics.CalendarCall(err)
	if err != nil {
		c.logger.Warn("calendar event creation failed",
			zap.String("mailbox", c.mailbox),
			zap.Error(err))
		return "", apperrors.NewExternalServiceError(serviceName, err)
	}
	c.logger.Info("calendar event created", zap.String("event_id", id))
	return id, nil
}

func (c *GraphClient) createEvent(ctx context.Context, subject string, start, end time.Time, attendees []string) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}

	payload := eventRequest{
		Subject:   subject,
		Start:     dateTimeZone{DateTime: start.In(c.location).Format(graphTimestamp), TimeZone: c.timeZone},
		End:       dateTimeZone{DateTime: end.In(c.location).Format(graphTimestamp), TimeZone: c.timeZone},
		Attendees: make([]attendee, 0, len(attendees)),
	}
	for _, address := range attendees {
		if address = strings.TrimSpace(address); address != "" {
			payload.Attendees = append(payload.Attendees, attendee{EmailAddress: emailAddress{Address: address}, Type: "required"})
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/users/%s/events", c.baseURL, url.PathEscape(c.mailbox))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("graph responded %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out eventResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode event: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("graph returned an event without id")
	}
	return out.ID, nil
}

// token runs the token source in a goroutine so a slow identity provider still honours ctx.
func (c *GraphClient) token(ctx context.Context) (*oauth2.Token, error) {
	type result struct {
		tok *oauth2.Token
		err error
	}
	ch := make(chan result, 1)
	go func() {
		tok, err := c.tokens.Token()
		ch <- result{tok: tok, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.tok, r.err
	}
}

// Disabled is used when Graph credentials are missing. Every call fails without network access.
type Disabled struct{}

func (Disabled) CreateAttendanceEvent(context.Context, string, time.Time, time.Time, []string) (string, error) {
	return "", apperrors.NewExternalServiceError(serviceName, errors.New("calendar integration not configured"))
}
