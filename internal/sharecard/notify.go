package sharecard

import (
	"sync"

	"github.com/rs/zerolog"
)

// Level of a user-facing status message
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier surfaces status messages to the user
type Notifier interface {
	Notify(level Level, message string)
}

// LogNotifier writes messages to a zerolog logger
type LogNotifier struct {
	Log zerolog.Logger
}

// Notify implements Notifier
func (n LogNotifier) Notify(level Level, message string) {
	ev := n.Log.Info()
	if level == LevelError {
		ev = n.Log.Warn()
	}
	ev.Str("level_hint", string(level)).Msg(message)
}

// Message is one recorded notification
type Message struct {
	Level Level
	Text  string
}

// Recorder collects messages, for HTTP responses and tests
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Notify implements Notifier
func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: message})
}

// Messages returns a copy of everything recorded so far
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Texts returns only the message bodies
func (r *Recorder) Texts() []string {
	msgs := r.Messages()
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}

// MultiNotifier fans out to several notifiers
type MultiNotifier []Notifier

// Notify implements Notifier
func (m MultiNotifier) Notify(level Level, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(level, message)
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(Level, string) {}
