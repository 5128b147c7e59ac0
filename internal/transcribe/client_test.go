package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finvox/finvox/internal/audio"
	"github.com/finvox/finvox/internal/config"
)

func testArtifact() audio.Artifact {
	return audio.NewWAVArtifact(make([]byte, 2000), 44100, 1)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default().Transcribe
	cfg.URL = server.URL
	cfg.APIKey = "sk-test"
	return NewClient(cfg, nil), server
}

func TestTranscribeSuccessTextField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"  buy more bonds  "}`))
	})

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.True(t, outcome.OK())
	require.Equal(t, "buy more bonds", outcome.Text)
}

func TestTranscribeSuccessTranscriptionField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transcription":"what is the price of AAPL"}`))
	})

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.True(t, outcome.OK())
	require.Equal(t, "what is the price of AAPL", outcome.Text)
}

func TestTranscribeTextFieldWinsOverTranscription(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"newer","transcription":"older"}`))
	})

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.True(t, outcome.OK())
	require.Equal(t, "newer", outcome.Text)
}

func TestTranscribeWhitespaceTextIsNoSpeech(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"   "}`))
	})

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.False(t, outcome.OK())
	require.Equal(t, ReasonNoSpeech, outcome.Failure.Reason)
	require.Contains(t, outcome.Failure.Message, "No speech detected")
}

func TestTranscribeMissingFieldsIsNoSpeech(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.False(t, outcome.OK())
	require.Equal(t, ReasonNoSpeech, outcome.Failure.Reason)
}

func TestTranscribeServiceErrorDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write([]byte(`{"detail":"file too large"}`))
	})

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.False(t, outcome.OK())
	require.Equal(t, ReasonServiceError, outcome.Failure.Reason)
	require.Equal(t, "file too large", outcome.Failure.Message)
}

func TestTranscribeServiceErrorErrorField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream model crashed"}`))
	})

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.Equal(t, ReasonServiceError, outcome.Failure.Reason)
	require.Equal(t, "upstream model crashed", outcome.Failure.Message)
}

func TestTranscribeServiceErrorRawBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("worker pool exhausted"))
	})

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.Equal(t, ReasonServiceError, outcome.Failure.Reason)
	require.Equal(t, "worker pool exhausted", outcome.Failure.Message)
}

func TestTranscribeServiceErrorEmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.Equal(t, ReasonServiceError, outcome.Failure.Reason)
	require.Equal(t, "Transcription failed: 503", outcome.Failure.Message)
}

func TestTranscribeUnreachable(t *testing.T) {
	cfg := config.Default().Transcribe
	cfg.URL = "http://127.0.0.1:1/api/transcribe"
	cfg.TimeoutMS = 500
	client := NewClient(cfg, nil)

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.False(t, outcome.OK())
	require.Equal(t, ReasonUnreachable, outcome.Failure.Reason)
	require.Contains(t, outcome.Failure.Message, "Cannot connect")
}

func TestTranscribeInvalidSuccessBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.Equal(t, ReasonUnknown, outcome.Failure.Reason)
}

func TestTranscribeRequestShape(t *testing.T) {
	var (
		auth     string
		filename string
		mimeType string
		model    string
		language string
		fileSize int
	)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(4<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		filename = header.Filename
		mimeType = header.Header.Get("Content-Type")
		fileSize = int(header.Size)
		model = r.FormValue("model")
		language = r.FormValue("language")

		w.Write([]byte(`{"text":"ok"}`))
	})

	artifact := testArtifact()
	outcome := client.Transcribe(context.Background(), artifact)
	require.True(t, outcome.OK())

	require.Equal(t, "Bearer sk-test", auth)
	require.Equal(t, "recording.wav", filename)
	require.Equal(t, "audio/wav", mimeType)
	require.Equal(t, len(artifact.Data), fileSize)
	require.Equal(t, "whisper-1", model)
	require.Equal(t, "en", language)
}

func TestTranscribeDefaultsUndeclaredArtifactIdentity(t *testing.T) {
	var filename, mimeType string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(4<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		filename = header.Filename
		mimeType = header.Header.Get("Content-Type")
		w.Write([]byte(`{"text":"ok"}`))
	})

	outcome := client.Transcribe(context.Background(), audio.Artifact{Data: []byte{1, 2, 3}})
	require.True(t, outcome.OK())
	require.Equal(t, "recording.webm", filename)
	require.Equal(t, "audio/webm", mimeType)
}

func TestTranscribeOmitsEmptyAuthAndHints(t *testing.T) {
	var auth string
	var hasModel, hasLanguage bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(4<<20))
		_, hasModel = r.MultipartForm.Value["model"]
		_, hasLanguage = r.MultipartForm.Value["language"]
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	cfg := config.TranscribeConfig{URL: server.URL, TimeoutMS: 5000}
	client := NewClient(cfg, nil)

	outcome := client.Transcribe(context.Background(), testArtifact())
	require.True(t, outcome.OK())
	require.Empty(t, auth)
	require.False(t, hasModel)
	require.False(t, hasLanguage)
}

func TestNewClientDefaultTimeout(t *testing.T) {
	client := NewClient(config.TranscribeConfig{URL: "http://localhost"}, nil)
	require.Equal(t, defaultTimeout, client.httpClient.Timeout)

	client = NewClient(config.TranscribeConfig{URL: "http://localhost", TimeoutMS: 1500}, nil)
	require.Equal(t, 1500*time.Millisecond, client.httpClient.Timeout)
}

func TestHealthReportsService(t *testing.T) {
	var path string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"status":"healthy","service":"transcription","provider":"whisper"}`))
	})

	report, err := client.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/health", path)
	require.True(t, report.Healthy())
	require.Equal(t, "whisper", report.Provider)
}

func TestHealthUnhealthy(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unhealthy","error":"model not loaded"}`))
	})

	report, err := client.Health(context.Background())
	require.NoError(t, err)
	require.False(t, report.Healthy())
	require.Equal(t, "model not loaded", report.Error)
}

func TestHealthUnreachable(t *testing.T) {
	cfg := config.TranscribeConfig{URL: "http://127.0.0.1:1/api/transcribe", TimeoutMS: 500}
	client := NewClient(cfg, nil)

	_, err := client.Health(context.Background())
	require.Error(t, err)
}
