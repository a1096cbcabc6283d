package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/app/agent"
	"pdfchat/history"
	"pdfchat/loader"
	"pdfchat/model"
	"pdfchat/pipeline"
	"pdfchat/splitter"
	"pdfchat/types"
)

type fakeStore struct {
	built   int
	results []types.Chunk
}

func (s *fakeStore) Build(_ context.Context, chunks []types.Chunk) (int, error) {
	s.built++
	s.results = chunks
	return len(chunks), nil
}

func (s *fakeStore) Retrieve(_ context.Context, _ string, k int) ([]types.Chunk, error) {
	if len(s.results) > k {
		return s.results[:k], nil
	}
	return s.results, nil
}

type fakeLLM struct {
	calls int
}

func (f *fakeLLM) Chat(_ context.Context, _ []types.Turn) (string, error) {
	f.calls++
	return "El cielo es azul.", nil
}

type fakeDetector struct{}

func (fakeDetector) Detect(string) (model.Lang, bool) { return model.LangSpanish, true }

func newTestApp(t *testing.T) (*fiber.App, *fakeStore, *fakeLLM) {
	t.Helper()

	store := &fakeStore{}
	llm := &fakeLLM{}
	cfg := types.Config{
		UploadDir:    t.TempDir(),
		ChunkSize:    100,
		ChunkOverlap: 20,
		TopK:         3,
	}
	deps := pipeline.Deps{
		Load:     loader.Load,
		Splitter: splitter.New(cfg.ChunkSize, cfg.ChunkOverlap),
		Store:    store,
		Agent:    agent.New(llm),
		Detector: fakeDetector{},
	}

	handler := NewDocHandler(cfg, deps, history.New())

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/upload", handler.HandleUpload)
	app.Post("/chat", handler.HandleChat)
	app.Post("/clear_history", handler.HandleClearHistory)
	return app, store, llm
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func postFile(t *testing.T, app *fiber.App, filename, content string) (*http.Response, map[string]any) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

func TestChatBeforeUpload(t *testing.T) {
	app, _, llm := newTestApp(t)

	resp, payload := postForm(t, app, "/chat", url.Values{"question": {"¿De qué color es el cielo?"}})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Primero subí un documento.", payload["error"])
	assert.Zero(t, llm.calls)
}

func TestUploadUnsupportedFormat(t *testing.T) {
	app, store, _ := newTestApp(t)

	resp, payload := postFile(t, app, "data.xyz", "whatever")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Formato de archivo no soportado", payload["error"])
	assert.Zero(t, store.built)

	// The failed upload must not unlock chat.
	_, payload = postForm(t, app, "/chat", url.Values{"question": {"anything"}})
	assert.Equal(t, "Primero subí un documento.", payload["error"])
}

func TestUploadThenChat(t *testing.T) {
	app, store, llm := newTestApp(t)

	resp, payload := postFile(t, app, "doc.txt", strings.Repeat("El cielo es azul. ", 30))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Archivo doc.txt cargado y procesado exitosamente", payload["message"])
	assert.Equal(t, 1, store.built)

	resp, payload = postForm(t, app, "/chat", url.Values{
		"question":   {"¿De qué color es el cielo?"},
		"session_id": {"ignored"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "El cielo es azul.", payload["answer"])
	assert.Equal(t, 1, llm.calls)
}

func TestSecondUploadSupersedesFirst(t *testing.T) {
	app, store, _ := newTestApp(t)

	_, _ = postFile(t, app, "first.txt", strings.Repeat("Los barcos navegan. ", 30))
	_, _ = postFile(t, app, "second.txt", strings.Repeat("Las montañas son altas. ", 30))

	assert.Equal(t, 2, store.built)
	// The fake store only holds the chunks of the last build; answers
	// can only come from the second document's content.
	for _, chunk := range store.results {
		assert.NotContains(t, chunk.Content, "barcos")
	}
}

func TestChatMissingQuestion(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := postForm(t, app, "/chat", url.Values{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestClearHistory(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, payload := postForm(t, app, "/clear_history", url.Values{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Historial del chat eliminado", payload["message"])
}
