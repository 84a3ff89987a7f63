package gcal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/perbu/calbrief/digest"
)

// Client reads events from the Google Calendar API.
type Client struct {
	service *calendar.Service
}

// NewClient wraps an already authenticated calendar service.
func NewClient(srv *calendar.Service) *Client {
	return &Client{service: srv}
}

// ListEvents retrieves every event instance between timeMin and timeMax,
// recurring events expanded, ordered by start time.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]digest.Event, error) {
	call := c.service.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		OrderBy("startTime")

	var out []digest.Event
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			out = append(out, toEvent(item))
		}
		return nil
	})
	if err != nil {
		return nil, &Error{Op: "list", CalendarID: calendarID, Err: err}
	}
	return out, nil
}

// toEvent converts an API event. Bounds that cannot be parsed are left empty,
// which keeps the event out of both digest sections.
func toEvent(item *calendar.Event) digest.Event {
	if item == nil {
		return digest.Event{}
	}
	return digest.Event{
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       toWhen(item.Start),
		End:         toWhen(item.End),
	}
}

func toWhen(dt *calendar.EventDateTime) digest.When {
	if dt == nil {
		return digest.When{}
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return digest.When{}
		}
		return digest.When{DateTime: t}
	}
	return digest.When{Date: dt.Date}
}

// ServiceAccountOpener authenticates with a service account JSON key.
type ServiceAccountOpener struct {
	credentials []byte
	options     []option.ClientOption
}

// NewServiceAccountOpener creates an opener for the given key. Extra client
// options are applied after the authenticated HTTP client.
func NewServiceAccountOpener(credentials []byte, opts ...option.ClientOption) *ServiceAccountOpener {
	return &ServiceAccountOpener{credentials: credentials, options: opts}
}

// Open parses the key, obtains a read-only bearer token and returns a Client
// using it.
func (o *ServiceAccountOpener) Open(ctx context.Context) (EventLister, error) {
	conf, err := google.JWTConfigFromJSON(o.credentials, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, &Error{Op: "credentials", Err: err}
	}

	ts := conf.TokenSource(ctx)
	token, err := ts.Token()
	if err != nil {
		return nil, &Error{Op: "token", Err: err}
	}
	client := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, ts))

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, o.options...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, &Error{Op: "service", Err: fmt.Errorf("calendar.NewService: %w", err)}
	}
	return NewClient(srv), nil
}
