package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
	"github.com/Lllllllleong/arabicpdftranslator/internal/pdf"
	"github.com/Lllllllleong/arabicpdftranslator/internal/services"
	"github.com/Lllllllleong/arabicpdftranslator/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoBackend struct{}

func (echoBackend) Name() string         { return "echo" }
func (echoBackend) RequiresAPIKey() bool { return true }
func (echoBackend) Generate(context.Context, string, string) (string, error) {
	return "অনুবাদ", nil
}

type pages []string

func (p pages) Total() int { return len(p) }
func (p pages) Page(_ context.Context, i int) (models.PageResult, error) {
	return models.PageResult{Index: i, Text: p[i-1]}, nil
}
func (pages) Close() error { return nil }

type pagesOpener struct{ p pages }

func (o pagesOpener) Open(context.Context, models.Document, models.Mode) (pdf.Extraction, error) {
	return o.p, nil
}

type silentSynth struct{}

func (silentSynth) Speak(ctx context.Context, _ services.Utterance) error {
	<-ctx.Done()
	return nil
}

func newTestServer(t *testing.T, maxSize int64) (*httptest.Server, *services.App) {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(context.Background(), store.KeyAPIKey, "test-key"))
	app := services.NewAppWithDeps(services.Deps{
		Config:      &services.Config{MaxFileSizeBytes: maxSize},
		Store:       st,
		Backend:     echoBackend{},
		Extractor:   pagesOpener{p: pages{"نص أول", "نص ثان"}},
		Synthesizer: silentSynth{},
	})
	srv := httptest.NewServer(New(app))
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close(context.Background())
	})
	return srv, app
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func upload(t *testing.T, url, name string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/document", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_RunLifecycle(t *testing.T) {
	srv, app := newTestServer(t, 1<<20)

	resp := do(t, http.MethodPost, srv.URL+"/runs", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	st := decodeBody[models.RunStatus](t, resp)
	require.NotNil(t, st.Notice)
	assert.Equal(t, "দয়া করে প্রথমে একটি PDF ফাইল সিলেক্ট করুন।", st.Notice.Message)

	resp = upload(t, srv.URL, "book.pdf", []byte("%PDF-1.4"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decodeBody[models.DocumentResponse](t, resp)
	assert.Equal(t, "book.pdf", doc.Name)
	assert.Equal(t, int64(8), doc.Size)

	resp = do(t, http.MethodPut, srv.URL+"/mode", models.ModeRequest{Mode: "handwriting"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, http.MethodPut, srv.URL+"/mode", models.ModeRequest{Mode: "text"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/runs", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Session.Wait(ctx))

	resp = do(t, http.MethodGet, srv.URL+"/runs", nil)
	st = decodeBody[models.RunStatus](t, resp)
	assert.Equal(t, models.RunIdle, st.State)
	assert.Equal(t, models.RunCompleted, st.LastOutcome)
	assert.Equal(t, 100, st.Progress)
	assert.Contains(t, st.SourceText, "পৃষ্ঠা 2:\nنص ثان")
	assert.Contains(t, st.TranslatedText, "পৃষ্ঠা 1:\nঅনুবাদ")

	resp = do(t, http.MethodGet, srv.URL+"/history", nil)
	hist := decodeBody[models.HistoryResponse](t, resp)
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, "book.pdf", hist.Entries[0].Title)
}

func TestServer_OversizedUploadRejectedAtStart(t *testing.T) {
	srv, _ := newTestServer(t, 16)

	resp := upload(t, srv.URL, "big.pdf", bytes.Repeat([]byte("x"), 64))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(64), decodeBody[models.DocumentResponse](t, resp).Size)

	resp = do(t, http.MethodPost, srv.URL+"/runs", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	st := decodeBody[models.RunStatus](t, resp)
	assert.Equal(t, models.RunIdle, st.State)
	require.NotNil(t, st.Notice)
	assert.Equal(t, models.NoticeError, st.Notice.Kind)
}

func TestServer_Settings(t *testing.T) {
	srv, _ := newTestServer(t, 1<<20)

	resp := do(t, http.MethodGet, srv.URL+"/settings/api-key", nil)
	key := decodeBody[models.APIKeyResponse](t, resp)
	assert.True(t, key.Configured)
	assert.NotContains(t, key.Masked, "test-key")

	resp = do(t, http.MethodPut, srv.URL+"/settings/api-key", models.APIKeyRequest{APIKey: "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/settings/api-key/test", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/settings/theme", nil)
	assert.Equal(t, "light", decodeBody[models.ThemePayload](t, resp).Theme)

	resp = do(t, http.MethodPut, srv.URL+"/settings/theme", models.ThemePayload{Theme: "sepia"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, http.MethodPut, srv.URL+"/settings/theme", models.ThemePayload{Theme: "dark"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, http.MethodGet, srv.URL+"/settings/theme", nil)
	assert.Equal(t, "dark", decodeBody[models.ThemePayload](t, resp).Theme)
}

func TestServer_ReaderAndSpeech(t *testing.T) {
	srv, _ := newTestServer(t, 1<<20)

	resp := do(t, http.MethodPost, srv.URL+"/speech/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/reader/open", models.ReaderOpenRequest{Kind: "bangla"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reader := decodeBody[models.ReaderResponse](t, resp)
	assert.True(t, reader.Open)
	assert.Equal(t, "কোনো অনুবাদ নেই", reader.Content)

	resp = do(t, http.MethodPost, srv.URL+"/reader/font", models.FontSizeRequest{Delta: 2})
	assert.Equal(t, 22, decodeBody[models.ReaderResponse](t, resp).FontSize)

	resp = do(t, http.MethodPost, srv.URL+"/reader/dark", nil)
	assert.True(t, decodeBody[models.ReaderResponse](t, resp).Dark)

	resp = do(t, http.MethodPost, srv.URL+"/reader/open", models.ReaderOpenRequest{Kind: "latin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/reader/close", nil)
	assert.False(t, decodeBody[models.ReaderResponse](t, resp).Open)

	resp = do(t, http.MethodPost, srv.URL+"/speech/stop", nil)
	assert.False(t, decodeBody[models.SpeechResponse](t, resp).Speaking)
}

func TestServer_HistoryAndMisc(t *testing.T) {
	srv, _ := newTestServer(t, 1<<20)

	resp := do(t, http.MethodPost, srv.URL+"/history/abc/load", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, http.MethodPost, srv.URL+"/history/42/load", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/clear", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/visibility", models.VisibilityRequest{Hidden: true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPut, srv.URL+"/mode", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Post(srv.URL+"/document", "text/plain", strings.NewReader("not multipart"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
