package assistant_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farmdash/internal/adapters/assistant"
	"github.com/PabloGalante/farmdash/internal/domain"
)

var completedAt = time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

func history(n int) []domain.Message {
	out := make([]domain.Message, 0, n)
	for i := 0; i < n; i++ {
		sender := domain.SenderUser
		if i%2 == 0 {
			sender = domain.SenderAssistant
		}
		out = append(out, domain.Message{
			ID:      domain.MessageID(fmt.Sprintf("m-%02d", i)),
			Content: fmt.Sprintf("message %d", i),
			Sender:  sender,
		})
	}
	return out
}

func newGateway(t *testing.T, srv *httptest.Server, opts ...assistant.Option) *assistant.Gateway {
	t.Helper()
	base := []assistant.Option{
		assistant.WithHTTPClient(srv.Client()),
		assistant.WithClock(func() time.Time { return completedAt }),
	}
	return assistant.NewGateway(srv.URL+"/api/chat", append(base, opts...)...)
}

func TestWindowCapsAtTen(t *testing.T) {
	for _, n := range []int{0, 5, 10, 25} {
		t.Run(fmt.Sprintf("%d prior", n), func(t *testing.T) {
			h := history(n)
			w := assistant.Window(h)

			want := n
			if want > assistant.ContextWindow {
				want = assistant.ContextWindow
			}
			require.Len(t, w, want)
			if n == 0 {
				return
			}
			// the window is the most recent tail, oldest first
			assert.Equal(t, h[n-1].Content, w[len(w)-1].Content)
			assert.Equal(t, h[n-want].Content, w[0].Content)
		})
	}
}

func TestWindowMapsRoles(t *testing.T) {
	w := assistant.Window(history(2))
	assert.Equal(t, domain.RoleAssistant, w[0].Role)
	assert.Equal(t, domain.RoleUser, w[1].Role)
}

func TestExchangeSendsPayload(t *testing.T) {
	var got assistant.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"response":"Rotate with soybeans.","timestamp":1743499860000}`)
	}))
	defer srv.Close()

	gw := newGateway(t, srv, assistant.WithLocale("ja"))
	attachment := domain.Attachment{Kind: domain.AttachmentImage, Reference: "/tmp/soil.jpg", DisplayName: "soil.jpg"}

	reply, err := gw.Exchange(context.Background(), domain.ExchangeRequest{
		UserText:   "rice",
		Attachment: &attachment,
		History:    history(25),
	})
	require.NoError(t, err)

	assert.Equal(t, "Rotate with soybeans.", reply.Text)
	require.NotNil(t, reply.ServerTime)
	assert.Equal(t, time.UnixMilli(1743499860000), *reply.ServerTime)
	assert.Equal(t, completedAt, reply.ReceivedAt)

	assert.Equal(t, "rice", got.Message)
	assert.Len(t, got.History, assistant.ContextWindow)
	assert.Equal(t, "ja", got.Locale)
	require.NotNil(t, got.Attachment)
	assert.Equal(t, "soil.jpg", got.Attachment.Name)
	assert.Equal(t, "image", got.Attachment.Kind)
}

func TestBuildRequestPrefersConversationLocale(t *testing.T) {
	req := domain.ExchangeRequest{UserText: "frost", Locale: "ja"}
	assert.Equal(t, "ja", assistant.BuildRequest(req, "en").Locale)

	req.Locale = ""
	assert.Equal(t, "en", assistant.BuildRequest(req, "en").Locale)
}

func TestExchangeTimestampFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantTime *time.Time
	}{
		{"absent", `{"response":"ok"}`, nil},
		{"null", `{"response":"ok","timestamp":null}`, nil},
		{"rfc3339 string", `{"response":"ok","timestamp":"2025-04-01T10:00:00Z"}`, ptr(time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC))},
		{"numeric string", `{"response":"ok","timestamp":"1743499860000"}`, ptr(time.UnixMilli(1743499860000))},
		{"garbage string is ignored", `{"response":"ok","timestamp":"yesterday"}`, nil},
		{"wrong type is ignored", `{"response":"ok","timestamp":{"ms":1}}`, nil},
		{"huge number is ignored", `{"response":"ok","timestamp":1e300}`, nil},
		{"huge negative number is ignored", `{"response":"ok","timestamp":-1e300}`, nil},
		{"huge numeric string is ignored", `{"response":"ok","timestamp":"1e300"}`, nil},
		{"NaN string is ignored", `{"response":"ok","timestamp":"NaN"}`, nil},
		{"Inf string is ignored", `{"response":"ok","timestamp":"+Inf"}`, nil},
		{"just past the date range is ignored", `{"response":"ok","timestamp":8640000000000001}`, nil},
		{"edge of the date range", `{"response":"ok","timestamp":8640000000000000}`, ptr(time.UnixMilli(8640000000000000))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			reply, err := newGateway(t, srv).Exchange(context.Background(), domain.ExchangeRequest{UserText: "hi"})
			require.NoError(t, err)
			assert.Equal(t, "ok", reply.Text)
			if tt.wantTime == nil {
				assert.Nil(t, reply.ServerTime)
				assert.Equal(t, completedAt, reply.CreatedAt())
				return
			}
			require.NotNil(t, reply.ServerTime)
			assert.True(t, tt.wantTime.Equal(*reply.ServerTime))
		})
	}
}

func TestExchangeFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind domain.ErrorKind
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, domain.KindServer},
		{"bad gateway with valid body", http.StatusBadGateway, `{"response":"should not leak"}`, domain.KindServer},
		{"not found", http.StatusNotFound, ``, domain.KindServer},
		{"not json", http.StatusOK, `<html>oops</html>`, domain.KindMalformedResponse},
		{"missing response", http.StatusOK, `{"answer":"hi"}`, domain.KindMalformedResponse},
		{"empty response", http.StatusOK, `{"response":"  "}`, domain.KindMalformedResponse},
		{"response wrong type", http.StatusOK, `{"response":42}`, domain.KindMalformedResponse},
		{"null body", http.StatusOK, `null`, domain.KindMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			reply, err := newGateway(t, srv).Exchange(context.Background(), domain.ExchangeRequest{UserText: "hi"})
			require.Error(t, err)
			assert.Empty(t, reply.Text)

			var gwErr *domain.GatewayError
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, tt.wantKind, gwErr.Kind)
			if tt.wantKind == domain.KindServer {
				assert.Equal(t, tt.status, gwErr.Status)
			}
		})
	}
}

func TestExchangeTimeoutIsNetworkFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	gw := newGateway(t, srv, assistant.WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := gw.Exchange(context.Background(), domain.ExchangeRequest{UserText: "weather?"})
	require.Error(t, err)
	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExchangeUnreachableIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw := assistant.NewGateway(url+"/api/chat", assistant.WithTimeout(time.Second))
	_, err := gw.Exchange(context.Background(), domain.ExchangeRequest{UserText: "hi"})
	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
}

func TestExchangeIssuesExactlyOneCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newGateway(t, srv).Exchange(context.Background(), domain.ExchangeRequest{UserText: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func ptr(t time.Time) *time.Time { return &t }
