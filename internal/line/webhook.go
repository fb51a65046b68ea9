package line

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

const SignatureHeader = "X-Line-Signature"

var ErrInvalidSignature = webhook.ErrInvalidSignature

// Event is the part of a webhook event the bot acts on.
type Event struct {
	Type       string
	ReplyToken string
	Timestamp  int64
	Source     Source
	Message    *EventMessage
}

type Source struct {
	Type    string
	UserID  string
	GroupID string
}

type EventMessage struct {
	ID   string
	Type string
	Text string
}

const (
	EventTypeMessage = "message"
	EventTypeFollow  = "follow"
	MessageTypeText  = "text"
)

// ParseRequest checks the channel signature of r and decodes its events.
// A bad signature returns ErrInvalidSignature.
func ParseRequest(channelSecret string, r *http.Request) ([]Event, error) {
	cb, err := webhook.ParseRequest(channelSecret, r)
	if err != nil {
		return nil, err
	}
	return events(cb), nil
}

// DecodeEvents decodes an unsigned webhook body.
func DecodeEvents(body []byte) ([]Event, error) {
	var cb webhook.CallbackRequest
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	return events(&cb), nil
}

// events keeps message and follow events; the rest are dropped.
func events(cb *webhook.CallbackRequest) []Event {
	out := make([]Event, 0, len(cb.Events))
	for _, raw := range cb.Events {
		switch e := raw.(type) {
		case webhook.MessageEvent:
			event := Event{
				Type:       EventTypeMessage,
				ReplyToken: e.ReplyToken,
				Timestamp:  e.Timestamp,
				Source:     source(e.Source),
			}
			switch m := e.Message.(type) {
			case webhook.TextMessageContent:
				event.Message = &EventMessage{ID: m.Id, Type: MessageTypeText, Text: m.Text}
			case nil:
			default:
				event.Message = &EventMessage{Type: "unsupported"}
			}
			out = append(out, event)
		case webhook.FollowEvent:
			out = append(out, Event{
				Type:       EventTypeFollow,
				ReplyToken: e.ReplyToken,
				Timestamp:  e.Timestamp,
				Source:     source(e.Source),
			})
		}
	}
	return out
}

func source(raw webhook.SourceInterface) Source {
	switch s := raw.(type) {
	case webhook.UserSource:
		return Source{Type: "user", UserID: s.UserId}
	case webhook.GroupSource:
		return Source{Type: "group", UserID: s.UserId, GroupID: s.GroupId}
	case webhook.RoomSource:
		return Source{Type: "room", UserID: s.UserId}
	}
	return Source{}
}
