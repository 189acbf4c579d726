package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultClientConfig("test-key")
	config.BaseURL = server.URL
	config.PollInterval = 10 * time.Millisecond
	config.RateLimiterConfig = RateLimiterConfig{
		RequestsPerSecond: 1000,
		BurstSize:         1000,
		WaitTimeout:       time.Second,
	}
	return NewClient(config)
}

func TestAskTutorReturnsAnswer(t *testing.T) {
	var gotRequest GenerateContentRequest

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/"+TutorModel+":generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{
				{Content: Content{Parts: []Part{{Text: "IA é como um cérebro de LEGO!"}}}},
			},
		})
	}))

	answer, err := client.AskTutor(context.Background(), "O que é IA?", shared.AudienceChild)
	require.NoError(t, err)
	assert.Equal(t, "IA é como um cérebro de LEGO!", answer)

	require.NotNil(t, gotRequest.SystemInstruction)
	assert.Contains(t, gotRequest.SystemInstruction.Parts[0].Text, "crianças de 7 a 10 anos")
	assert.Equal(t, "O que é IA?", gotRequest.Contents[0].Parts[0].Text)
	assert.Equal(t, 0.7, gotRequest.GenerationConfig.Temperature)
}

func TestAskTutorAdultPersona(t *testing.T) {
	var gotRequest GenerateContentRequest

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{
				{Content: Content{Parts: []Part{{Text: "Redes neurais são modelos estatísticos."}}}},
			},
		})
	}))

	_, err := client.AskTutor(context.Background(), "O que são redes neurais?", shared.AudienceAdult)
	require.NoError(t, err)
	assert.Contains(t, gotRequest.SystemInstruction.Parts[0].Text, "consultor especialista")
}

func TestAskTutorEmptyCandidates(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(GenerateContentResponse{})
	}))

	answer, err := client.AskTutor(context.Background(), "Oi", shared.AudienceChild)
	require.NoError(t, err)
	assert.Equal(t, EmptyAnswer, answer)
}

func TestAskTutorEmptyQuestion(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := client.AskTutor(context.Background(), "", shared.AudienceChild)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestAskTutorClientErrorNotRetried(t *testing.T) {
	calls := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(apiErrorEnvelope{
			Error: APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "bad prompt"},
		})
	}))

	_, err := client.AskTutor(context.Background(), "Oi", shared.AudienceChild)
	require.Error(t, err)

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1, calls)
}

func TestAskTutorRetriesServerError(t *testing.T) {
	calls := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(apiErrorEnvelope{
				Error: APIError{Code: 500, Status: "INTERNAL", Message: "transient"},
			})
			return
		}
		json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{
				{Content: Content{Parts: []Part{{Text: "Consegui!"}}}},
			},
		})
	}))

	answer, err := client.AskTutor(context.Background(), "Oi", shared.AudienceChild)
	require.NoError(t, err)
	assert.Equal(t, "Consegui!", answer)
	assert.Equal(t, 3, calls)
}

func TestGenerateVideoPollsUntilDone(t *testing.T) {
	polls := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			assert.Equal(t, "/v1beta/models/"+VideoModel+":generateVideos", r.URL.Path)

			var req GenerateVideosRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, SeasonTrailerPrompt, req.Prompt)
			assert.Equal(t, "720p", req.Config.Resolution)
			assert.Equal(t, "16:9", req.Config.AspectRatio)
			assert.Equal(t, 1, req.Config.NumberOfVideos)

			json.NewEncoder(w).Encode(VideoOperation{Name: "operations/op-1"})
		default:
			assert.Equal(t, "/v1beta/operations/op-1", r.URL.Path)
			polls++
			if polls < 2 {
				json.NewEncoder(w).Encode(VideoOperation{Name: "operations/op-1"})
				return
			}
			json.NewEncoder(w).Encode(VideoOperation{
				Name: "operations/op-1",
				Done: true,
				Response: &VideoResponse{
					GeneratedVideos: []GeneratedVideo{
						{Video: VideoFile{URI: "https://example.com/video.mp4?alt=media"}},
					},
				},
			})
		}
	}))

	url, err := client.GenerateVideo(context.Background(), SeasonTrailerPrompt)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/video.mp4?alt=media&key=test-key", url)
	assert.Equal(t, 2, polls)
}

func TestGenerateVideoOperationError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(VideoOperation{Name: "operations/op-2"})
			return
		}
		json.NewEncoder(w).Encode(VideoOperation{
			Name:  "operations/op-2",
			Done:  true,
			Error: &OperationErr{Code: 8, Message: "quota exhausted"},
		})
	}))

	_, err := client.GenerateVideo(context.Background(), SeasonTrailerPrompt)
	assert.ErrorIs(t, err, shared.ErrVideoGenerationFailed)
}

func TestGenerateVideoNoVideoProduced(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(VideoOperation{
			Name:     "operations/op-3",
			Done:     true,
			Response: &VideoResponse{},
		})
	}))

	_, err := client.GenerateVideo(context.Background(), SeasonTrailerPrompt)
	assert.ErrorIs(t, err, shared.ErrVideoGenerationFailed)
}

func TestGenerateVideoCancelledDuringPoll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(VideoOperation{Name: "operations/op-4"})
			return
		}
		cancel()
		json.NewEncoder(w).Encode(VideoOperation{Name: "operations/op-4"})
	}))

	_, err := client.GenerateVideo(ctx, SeasonTrailerPrompt)
	assert.ErrorIs(t, err, context.Canceled)
}
