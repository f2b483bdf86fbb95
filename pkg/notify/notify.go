package notify

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Level of a user-visible notification.
type Level string

const (
	Info    Level = "info"
	Error   Level = "error"
	Success Level = "success"
)

// Notification is a user-visible message emitted during bootstrap and order
// flow. Sticky notifications stay up until dismissed (used for "waiting on
// X" progress messages).
type Notification struct {
	ID      string
	Level   Level
	Message string
	Sticky  bool
}

// Sink receives notifications for the user-facing collaborator. The core
// never blocks on a sink; implementations must return promptly.
type Sink interface {
	Push(n Notification)
	Dismiss(id string)
}

// Progress pushes a sticky info notification and returns its handle so the
// caller can dismiss it when the step completes.
func Progress(s Sink, message string) string {
	id := uuid.NewString()
	s.Push(Notification{ID: id, Level: Info, Message: message, Sticky: true})
	return id
}

// Infof pushes a transient info notification.
func Infof(s Sink, message string) {
	s.Push(Notification{ID: uuid.NewString(), Level: Info, Message: message})
}

// Errorf pushes an error notification.
func Errorf(s Sink, message string) {
	s.Push(Notification{ID: uuid.NewString(), Level: Error, Message: message})
}

// Successf pushes a success notification.
func Successf(s Sink, message string) {
	s.Push(Notification{ID: uuid.NewString(), Level: Success, Message: message})
}

// ZapSink logs notifications instead of displaying them. Used by the CLI
// client and as a default when no UI is attached.
type ZapSink struct {
	Log *zap.SugaredLogger
}

func (z ZapSink) Push(n Notification) {
	switch n.Level {
	case Error:
		z.Log.Errorw("notification", "id", n.ID, "msg", n.Message)
	default:
		z.Log.Infow("notification", "id", n.ID, "level", string(n.Level), "msg", n.Message)
	}
}

func (z ZapSink) Dismiss(id string) {
	z.Log.Debugw("notification_dismissed", "id", id)
}
