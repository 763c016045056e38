package chain

// Prompt is a single user request: the prompt text, an optional system
// prompt, and any attachments.
type Prompt struct {
	Text        string
	System      string
	Attachments []Attachment
}

// Attachment is binary content included with a prompt. Providers decide
// how (or whether) to transmit each MIME type.
type Attachment struct {
	MimeType string
	Data     []byte
}
