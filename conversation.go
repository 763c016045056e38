package chain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the append-only turn history of a chain. The controller
// appends one Response per model invocation; providers read Responses to
// rebuild their wire-format context. Turns are never reordered or removed.
type Conversation struct {
	ID        string
	Model     string
	Responses []Response
	CreatedAt time.Time
}

// NewConversation creates an empty conversation for the given model name.
func NewConversation(model string) *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		Model:     model,
		CreatedAt: time.Now(),
	}
}

// Append adds a completed turn to the history.
func (c *Conversation) Append(r Response) {
	c.Responses = append(c.Responses, r)
}

// Last returns the most recent turn, or false when the conversation is
// empty.
func (c *Conversation) Last() (Response, bool) {
	if len(c.Responses) == 0 {
		return Response{}, false
	}
	return c.Responses[len(c.Responses)-1], true
}

// LastText returns the text of the most recent turn that produced any,
// searching backwards. Empty when no turn produced text.
func (c *Conversation) LastText() string {
	for i := len(c.Responses) - 1; i >= 0; i-- {
		if c.Responses[i].Text != "" {
			return c.Responses[i].Text
		}
	}
	return ""
}
