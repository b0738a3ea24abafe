package firestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/farmdash/internal/domain"
)

func TestMessageDocRoundTripKeepsAttachments(t *testing.T) {
	msg := domain.Message{
		ID:        "0190b3c4-0000-7000-8000-000000000001",
		Content:   "soil report",
		Sender:    domain.SenderUser,
		CreatedAt: time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC),
		Attachments: []domain.Attachment{{
			Kind:        domain.AttachmentImage,
			Reference:   "/tmp/soil.jpg",
			DisplayName: "soil.jpg",
		}},
	}

	doc := toMessageDoc("s-1", msg)
	assert.Equal(t, "s-1", doc.SessionID)
	assert.Equal(t, "user", doc.Sender)

	assert.Equal(t, msg, fromMessageDoc(string(msg.ID), doc))
}

func TestNewStoreRequiresProject(t *testing.T) {
	_, err := NewStore(t.Context(), "")
	assert.Error(t, err)
}
