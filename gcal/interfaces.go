package gcal

import (
	"context"
	"time"

	"github.com/perbu/calbrief/digest"
)

// EventLister is the authenticated calendar-read capability.
type EventLister interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]digest.Event, error)
}

// Opener turns a credential into an EventLister.
type Opener interface {
	Open(ctx context.Context) (EventLister, error)
}
