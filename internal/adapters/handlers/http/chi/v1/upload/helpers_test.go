package upload_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"upload-coordinator/internal/adapters/handlers/http/chi"
	"upload-coordinator/internal/adapters/handlers/http/chi/v1/upload"
	upload2 "upload-coordinator/internal/core/service/upload"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var testLimits = upload.Limits{MaxJSONBody: 1 << 20, MaxPartBody: 64}

func newRouter(service *upload2.MockUploadService) http.Handler {
	handler := upload.NewUploadHandlerV1(service, testLimits, discardLogger)
	return chi.NewRouter(discardLogger, handler, "", 0)
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	h.ServeHTTP(w, req)
	return w
}
