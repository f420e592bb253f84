package stability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchly/billing-service/internal/domain"
	"github.com/sketchly/billing-service/pkg/logger"
)

func quietLogger() *logger.Logger {
	log := logger.New(logger.FATAL)
	log.SetOutput(io.Discard)
	return log
}

func TestGenerateImageReturnsDataURL(t *testing.T) {
	var gotAuth, gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPrompt = r.FormValue("prompt")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	}))
	defer server.Close()

	client := NewClientWithEndpoint("sk-test", server.URL, server.Client(), quietLogger())

	result, err := client.GenerateImage(context.Background(), "a red bicycle")

	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "a red bicycle", gotPrompt)
	assert.True(t, strings.HasPrefix(result, "data:image/webp;base64,"))
}

func TestGenerateImageWrapsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors": ["rate limited"]}`))
	}))
	defer server.Close()

	client := NewClientWithEndpoint("sk-test", server.URL, server.Client(), quietLogger())

	_, err := client.GenerateImage(context.Background(), "prompt")

	var extErr *domain.ExternalServiceError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "stability", extErr.Service)
	assert.Equal(t, http.StatusTooManyRequests, extErr.StatusCode)
}
