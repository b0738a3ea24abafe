package domain

// AttachmentKind classifies a staged file for display.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment is a marker for a selected file. Nothing is uploaded; only the
// descriptor travels with the turn.
type Attachment struct {
	Kind        AttachmentKind `json:"kind"`
	Reference   string         `json:"reference"`
	DisplayName string         `json:"display_name"`
}

// Message represents one entry of a conversation timeline (user or assistant)
type Message struct {
	ID        MessageID
	Content   string
	Sender    Sender
	CreatedAt Timestamp

	// Empty for ordinary turns.
	Attachments []Attachment
}

func (m Message) HasAttachments() bool {
	return len(m.Attachments) > 0
}

// Turn is a message reduced to the {role, content} shape sent as context.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
