package service

import "context"

//go:generate mockgen -source=messenger.go -destination=messenger_mock.go -package=service

// Messenger pushes a text message to one LINE user.
type Messenger interface {
	PushText(ctx context.Context, to, text string) error
}
