package conversation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farmdash/internal/app/conversation"
	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/i18n"
)

func newTestStore(opts ...conversation.Option) *conversation.Store {
	base := []conversation.Option{
		conversation.WithClock(func() time.Time { return fixedNow }),
		conversation.WithIDGenerator(sequentialIDs()),
	}
	return conversation.NewStore(append(base, opts...)...)
}

func TestNewStoreSeedsGreeting(t *testing.T) {
	store := newTestStore()

	st := store.State()
	require.Equal(t, 1, st.Len())
	greeting, ok := st.Last()
	require.True(t, ok)
	assert.Equal(t, domain.SenderAssistant, greeting.Sender)
	assert.Equal(t, i18n.For("en").Greeting, greeting.Content)
	assert.False(t, st.Pending())
}

func TestAppendUserTurnRejectsEmpty(t *testing.T) {
	store := newTestStore()

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := store.AppendUserTurn(content, nil)
		assert.ErrorIs(t, err, domain.ErrEmptySubmission)
	}
	assert.Equal(t, 1, store.State().Len())
	assert.False(t, store.State().Pending())
}

func TestAppendUserTurnAcceptsAttachmentOnly(t *testing.T) {
	store := newTestStore()

	id, err := store.AppendUserTurn("", &soilReport)
	require.NoError(t, err)

	last, _ := store.State().Last()
	assert.Equal(t, id, last.ID)
	assert.Equal(t, []domain.Attachment{soilReport}, last.Attachments)
	assert.True(t, store.State().Pending())
}

func TestAppendUserTurnTakesStagedAttachment(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"attachment only", ""},
		{"text and attachment", "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore()
			conversation.NewStager(store).Stage(soilReport)

			id, err := store.AppendUserTurn(tt.content, nil)
			require.NoError(t, err)

			st := store.State()
			last, _ := st.Last()
			assert.Equal(t, id, last.ID)
			assert.Equal(t, tt.content, last.Content)
			assert.Equal(t, []domain.Attachment{soilReport}, last.Attachments)
			_, staged := st.Staged()
			assert.False(t, staged)
		})
	}
}

func TestAppendUserTurnExplicitAttachmentWins(t *testing.T) {
	store := newTestStore()
	conversation.NewStager(store).Stage(soilReport)

	ledger := domain.Attachment{Kind: domain.AttachmentDocument, Reference: "/tmp/ledger.xlsx", DisplayName: "ledger.xlsx"}
	_, err := store.AppendUserTurn("costs", &ledger)
	require.NoError(t, err)

	last, _ := store.State().Last()
	assert.Equal(t, []domain.Attachment{ledger}, last.Attachments)
	_, staged := store.State().Staged()
	assert.False(t, staged)
}

func TestAppendUserTurnRefusedKeepsStagedAttachment(t *testing.T) {
	store := newTestStore()
	_, err := store.AppendUserTurn("rice", nil)
	require.NoError(t, err)

	conversation.NewStager(store).Stage(soilReport)
	_, err = store.AppendUserTurn("", nil)
	assert.ErrorIs(t, err, domain.ErrTurnPending)

	a, staged := store.State().Staged()
	require.True(t, staged)
	assert.Equal(t, soilReport, a)
}

func TestAppendUserTurnRefusedWhilePending(t *testing.T) {
	store := newTestStore()

	_, err := store.AppendUserTurn("rice", nil)
	require.NoError(t, err)

	_, err = store.AppendUserTurn("soybeans", nil)
	assert.ErrorIs(t, err, domain.ErrTurnPending)
	assert.Equal(t, 2, store.State().Len())
}

func TestAppendAssistantResult(t *testing.T) {
	serverTime := time.Date(2025, 4, 1, 9, 31, 0, 0, time.UTC)

	tests := []struct {
		name        string
		result      func(turn domain.MessageID) conversation.Result
		wantContent string
		wantTime    time.Time
	}{
		{
			name: "success with server timestamp",
			result: func(turn domain.MessageID) conversation.Result {
				return conversation.Success(turn, domain.AssistantReply{Text: "Plant early.", ServerTime: &serverTime, ReceivedAt: fixedNow})
			},
			wantContent: "Plant early.",
			wantTime:    serverTime,
		},
		{
			name: "success without server timestamp",
			result: func(turn domain.MessageID) conversation.Result {
				return conversation.Success(turn, domain.AssistantReply{Text: "Plant early.", ReceivedAt: fixedNow.Add(time.Second)})
			},
			wantContent: "Plant early.",
			wantTime:    fixedNow.Add(time.Second),
		},
		{
			name: "failure becomes apology",
			result: func(turn domain.MessageID) conversation.Result {
				return conversation.Failure(turn, domain.NewGatewayError(domain.KindServer, errors.New("502")))
			},
			wantContent: i18n.For("en").Apology,
			wantTime:    fixedNow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore()
			turn, err := store.AppendUserTurn("rice", nil)
			require.NoError(t, err)

			require.True(t, store.AppendAssistantResult(tt.result(turn)))

			st := store.State()
			assert.Equal(t, 3, st.Len())
			assert.False(t, st.Pending())
			last, _ := st.Last()
			assert.Equal(t, domain.SenderAssistant, last.Sender)
			assert.Equal(t, tt.wantContent, last.Content)
			assert.Equal(t, tt.wantTime, last.CreatedAt)
		})
	}
}

func TestAppendAssistantResultIgnoresStaleTurn(t *testing.T) {
	store := newTestStore()

	assert.False(t, store.AppendAssistantResult(conversation.Failure("nope", nil)),
		"nothing pending")

	_, err := store.AppendUserTurn("rice", nil)
	require.NoError(t, err)
	assert.False(t, store.AppendAssistantResult(conversation.Failure("other-turn", nil)))
	assert.True(t, store.State().Pending())
	assert.Equal(t, 2, store.State().Len())
}

func TestStoreCloseMakesLateResultsNoOps(t *testing.T) {
	store := newTestStore()
	turn, err := store.AppendUserTurn("rice", nil)
	require.NoError(t, err)

	store.Close()

	assert.False(t, store.AppendAssistantResult(conversation.Success(turn, domain.AssistantReply{Text: "late"})))
	assert.Equal(t, 2, store.State().Len())

	_, err = store.AppendUserTurn("again", nil)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
}

func TestStateSnapshotsAreImmutable(t *testing.T) {
	store := newTestStore()
	before := store.State()

	turn, err := store.AppendUserTurn("rice", nil)
	require.NoError(t, err)
	mid := store.State()
	require.True(t, store.AppendAssistantResult(conversation.Success(turn, domain.AssistantReply{Text: "ok"})))

	assert.Equal(t, 1, before.Len())
	assert.False(t, before.Pending())
	assert.Equal(t, 2, mid.Len())
	assert.True(t, mid.Pending())
	assert.Equal(t, 3, store.State().Len())

	h := store.State().History()
	h[0].Content = "edited"
	first := store.State().History()[0]
	assert.NotEqual(t, "edited", first.Content)
}

func TestObserversSeeEachAppend(t *testing.T) {
	store := newTestStore()

	var appended []domain.Sender
	var pending []bool
	unsubscribe := store.Subscribe(func(ev conversation.Event) {
		if ev.Appended != nil {
			appended = append(appended, ev.Appended.Sender)
		}
		pending = append(pending, ev.State.Pending())
	})

	turn, err := store.AppendUserTurn("rice", nil)
	require.NoError(t, err)
	store.AppendAssistantResult(conversation.Success(turn, domain.AssistantReply{Text: "ok"}))

	assert.Equal(t, []domain.Sender{domain.SenderUser, domain.SenderAssistant}, appended)
	assert.Equal(t, []bool{true, false}, pending)

	unsubscribe()
	_, err = store.AppendUserTurn("more", nil)
	require.NoError(t, err)
	assert.Len(t, appended, 2)
}

func TestMessageIDsAreCreationOrdered(t *testing.T) {
	store := conversation.NewStore()

	for i := 0; i < 5; i++ {
		turn, err := store.AppendUserTurn("rice", nil)
		require.NoError(t, err)
		store.AppendAssistantResult(conversation.Success(turn, domain.AssistantReply{Text: "ok"}))
	}

	h := store.State().History()
	for i := 1; i < len(h); i++ {
		assert.Less(t, string(h[i-1].ID), string(h[i].ID))
	}
}
