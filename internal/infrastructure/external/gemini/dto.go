// Package gemini implements the Google Gemini API client used for the AI
// tutor chat and Veo trailer generation.
package gemini

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// TEXT GENERATION DTOs
// ══════════════════════════════════════════════════════════════════════════════

// GenerateContentRequest is the request body of models/{model}:generateContent.
type GenerateContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is a single message with one or more parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is one piece of content, text only in this client.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig tunes text generation.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// GenerateContentResponse is the response of models/{model}:generateContent.
type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// Text returns the first candidate's text, empty if the response has none.
func (r *GenerateContentResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	for _, part := range r.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text
		}
	}
	return ""
}

// ══════════════════════════════════════════════════════════════════════════════
// VIDEO GENERATION DTOs (Veo long-running operations)
// ══════════════════════════════════════════════════════════════════════════════

// GenerateVideosRequest is the request body of models/{model}:generateVideos.
type GenerateVideosRequest struct {
	Prompt string       `json:"prompt"`
	Config *VideoConfig `json:"config,omitempty"`
}

// VideoConfig tunes video generation.
type VideoConfig struct {
	NumberOfVideos int    `json:"numberOfVideos,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
}

// VideoOperation is a long-running Veo operation. Callers poll it by name
// until Done flips to true.
type VideoOperation struct {
	Name     string         `json:"name"`
	Done     bool           `json:"done"`
	Error    *OperationErr  `json:"error,omitempty"`
	Response *VideoResponse `json:"response,omitempty"`
}

// OperationErr is the error payload of a failed operation.
type OperationErr struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// VideoResponse holds the generated videos of a finished operation.
type VideoResponse struct {
	GeneratedVideos []GeneratedVideo `json:"generatedVideos"`
}

// GeneratedVideo is one generated video sample.
type GeneratedVideo struct {
	Video VideoFile `json:"video"`
}

// VideoFile points at the downloadable video.
type VideoFile struct {
	URI string `json:"uri"`
}

// FirstVideoURI returns the download URI of the first generated video,
// empty if the operation produced none.
func (o *VideoOperation) FirstVideoURI() string {
	if o.Response == nil || len(o.Response.GeneratedVideos) == 0 {
		return ""
	}
	return o.Response.GeneratedVideos[0].Video.URI
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR DTO
// ══════════════════════════════════════════════════════════════════════════════

// APIError is the standard Google API error envelope.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("gemini api error %d (%s): %s", e.Code, e.Status, e.Message)
}

// apiErrorEnvelope matches the JSON wrapper around APIError.
type apiErrorEnvelope struct {
	Error APIError `json:"error"`
}
