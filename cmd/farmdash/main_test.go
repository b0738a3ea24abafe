package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/adapters/assistant"
	memstore "github.com/PabloGalante/farmdash/internal/adapters/storage/memory"
	"github.com/PabloGalante/farmdash/internal/config"
	"github.com/PabloGalante/farmdash/internal/i18n"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		askAttach, askLocale, configOut = "", "", ""
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAskPrintsReply(t *testing.T) {
	var got assistant.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"Transplant after the last frost, around mid-May."}`))
	}))
	defer srv.Close()

	t.Setenv("FARM_ASSISTANT_ENDPOINT", srv.URL)
	t.Setenv("FARM_LOG_FILE", t.TempDir()+"/farmdash.log")

	out, err := execute(t, "ask", "--attach", "field.jpg", "When", "to", "transplant?")
	require.NoError(t, err)

	assert.Contains(t, out, "Transplant after the last frost")
	assert.Equal(t, "When to transplant?", got.Message)
	require.NotNil(t, got.Attachment)
	assert.Equal(t, "field.jpg", got.Attachment.Name)
	require.Len(t, got.History, 1, "greeting only")
}

func TestAskFailurePrintsApology(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	t.Setenv("FARM_ASSISTANT_ENDPOINT", srv.URL)
	t.Setenv("FARM_LOG_FILE", t.TempDir()+"/farmdash.log")

	out, err := execute(t, "ask", "--locale", "ja", "霜は？")
	require.NoError(t, err)
	assert.Contains(t, out, i18n.For("ja").Apology)
}

func TestAskWithNothingToSend(t *testing.T) {
	t.Setenv("FARM_LOG_FILE", t.TempDir()+"/farmdash.log")

	_, err := execute(t, "ask")
	assert.Error(t, err)
}

func TestConfigCommandPrintsYAML(t *testing.T) {
	t.Setenv("FARM_LOG_FILE", t.TempDir()+"/farmdash.log")
	t.Setenv("FARM_LOCALE", "ja")

	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "locale: ja")
	assert.Contains(t, out, "endpoint:")
}

func TestBuildArchive(t *testing.T) {
	logger = zap.NewNop()

	c := config.Default()
	archive, closeFn, err := buildArchive(context.Background(), c)
	require.NoError(t, err)
	assert.Nil(t, archive)
	assert.NoError(t, closeFn())

	c.Archive.Backend = config.ArchiveMemory
	archive, _, err = buildArchive(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &memstore.TranscriptStore{}, archive)
}

func TestBuildWeatherDisabledWithoutUpstream(t *testing.T) {
	c := config.Default()
	assert.NotNil(t, buildWeather(c))

	c.Weather.UpstreamURL = ""
	assert.Nil(t, buildWeather(c))
}
