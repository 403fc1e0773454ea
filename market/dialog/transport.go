package dialog

import "context"

// Button is an inline button bound to an action.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Btn builds a button for a button action. Actions without a callback encoding panic.
func Btn(text string, a Action) Button {
	tag, payload, ok := Encode(a)
	if !ok {
		panic("dialog: action cannot be attached to a button")
	}
	return Button{Text: text, Unique: tag, Data: payload}
}

// Keyboard is a grid of inline buttons, one slice per row.
type Keyboard [][]Button

// Message is one outbound chat message of a screen.
type Message struct {
	Text     string
	Keyboard Keyboard
}

// Transport sends and deletes chat messages.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string, kb Keyboard) (int, error)
	Delete(ctx context.Context, chatID int64, messageID int) error
}
