// Package line delivers text to a single LINE user through the Messaging API
// push endpoint.
package line

import (
	"context"
	"errors"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Messaging API limits for one push request.
const (
	MaxTextLength = 5000
	MaxMessages   = 5
)

var (
	// ErrTooLong is returned when a text does not fit into MaxMessages messages.
	ErrTooLong = errors.New("text exceeds the push message limit")
	// ErrEmpty is returned for an empty recipient or text.
	ErrEmpty = errors.New("recipient and text must be non-empty")
)

// PushError represents a failed push.
type PushError struct {
	Op        string
	Recipient string
	Err       error
}

// Error implements the error interface
func (e *PushError) Error() string {
	if e.Recipient != "" {
		return fmt.Sprintf("line %s (to: %s): %v", e.Op, e.Recipient, e.Err)
	}
	return fmt.Sprintf("line %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *PushError) Unwrap() error {
	return e.Err
}

// Pusher sends push messages with a channel access token.
type Pusher struct {
	api *messaging_api.MessagingApiAPI
}

// NewPusher creates a Pusher. Options are passed to the SDK client, e.g.
// messaging_api.WithEndpoint in tests.
func NewPusher(channelToken string, opts ...messaging_api.MessagingApiAPIOption) (*Pusher, error) {
	if channelToken == "" {
		return nil, &PushError{Op: "init", Err: errors.New("channel access token is empty")}
	}
	api, err := messaging_api.NewMessagingApiAPI(channelToken, opts...)
	if err != nil {
		return nil, &PushError{Op: "init", Err: fmt.Errorf("messaging_api.NewMessagingApiAPI: %w", err)}
	}
	return &Pusher{api: api}, nil
}

// Push sends text to the recipient as one request. Text longer than
// MaxTextLength is split on line boundaries into several text messages.
func (p *Pusher) Push(ctx context.Context, to, text string) error {
	if to == "" || text == "" {
		return &PushError{Op: "push", Recipient: to, Err: ErrEmpty}
	}

	chunks := Split(text, MaxTextLength)
	if len(chunks) > MaxMessages {
		return &PushError{Op: "push", Recipient: to, Err: fmt.Errorf("%w: %d messages needed", ErrTooLong, len(chunks))}
	}

	messages := make([]messaging_api.MessageInterface, 0, len(chunks))
	for _, c := range chunks {
		messages = append(messages, &messaging_api.TextMessage{Text: c})
	}

	_, err := p.api.WithContext(ctx).PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: messages,
	}, "")
	if err != nil {
		return &PushError{Op: "push", Recipient: to, Err: err}
	}
	return nil
}

// Split cuts text into pieces of at most limit characters, breaking after a
// newline where possible. Concatenating the pieces yields text.
func Split(text string, limit int) []string {
	if limit <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	var out []string
	for len(runes) > limit {
		cut := limit
		if i := lastNewline(runes[:limit]); i >= 0 {
			cut = i + 1
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func lastNewline(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == '\n' {
			return i
		}
	}
	return -1
}
