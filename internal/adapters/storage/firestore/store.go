package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/farmdash/internal/domain"
)

// Store archives conversation transcripts in Firestore. Transcripts are
// never loaded back into a live conversation.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) transcriptDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.client.Collection("transcripts").Doc(string(id))
}

func (s *Store) messagesCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.transcriptDoc(sessionID).Collection("messages")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type attachmentDoc struct {
	Kind        string `firestore:"kind"`
	Reference   string `firestore:"reference"`
	DisplayName string `firestore:"display_name"`
}

type messageDoc struct {
	SessionID   string          `firestore:"session_id"`
	Sender      string          `firestore:"sender"`
	Content     string          `firestore:"content"`
	CreatedAt   time.Time       `firestore:"created_at"`
	Attachments []attachmentDoc `firestore:"attachments"`
}

func toMessageDoc(sessionID domain.SessionID, msg domain.Message) messageDoc {
	doc := messageDoc{
		SessionID: string(sessionID),
		Sender:    string(msg.Sender),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	for _, a := range msg.Attachments {
		doc.Attachments = append(doc.Attachments, attachmentDoc{
			Kind:        string(a.Kind),
			Reference:   a.Reference,
			DisplayName: a.DisplayName,
		})
	}
	return doc
}

func fromMessageDoc(id string, doc messageDoc) domain.Message {
	msg := domain.Message{
		ID:        domain.MessageID(id),
		Content:   doc.Content,
		Sender:    domain.Sender(doc.Sender),
		CreatedAt: doc.CreatedAt,
	}
	for _, a := range doc.Attachments {
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			Kind:        domain.AttachmentKind(a.Kind),
			Reference:   a.Reference,
			DisplayName: a.DisplayName,
		})
	}
	return msg
}

// ─────────────────────────────────────────
// TranscriptArchive implementation
// ─────────────────────────────────────────

func (s *Store) ArchiveMessage(ctx context.Context, sessionID domain.SessionID, msg domain.Message) error {
	_, err := s.transcriptDoc(sessionID).Set(ctx, map[string]interface{}{
		"updated_at": msg.CreatedAt,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore ArchiveMessage transcript: %w", err)
	}

	_, err = s.messagesCol(sessionID).Doc(string(msg.ID)).Create(ctx, toMessageDoc(sessionID, msg))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			// messages are immutable; a replayed write is harmless
			return nil
		}
		return fmt.Errorf("firestore ArchiveMessage: %w", err)
	}
	return nil
}

// ListMessages returns the last `limit` messages, oldest first.
func (s *Store) ListMessages(ctx context.Context, sessionID domain.SessionID, limit int) ([]domain.Message, error) {
	q := s.messagesCol(sessionID).OrderBy(firestore.DocumentID, firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			if status.Code(err) == codes.NotFound {
				return nil, domain.ErrSessionNotFound
			}
			return nil, fmt.Errorf("firestore ListMessages: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}
		out = append(out, fromMessageDoc(snap.Ref.ID, doc))
	}

	// ids are UUIDv7, so descending id order is newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
