package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VIDEO GENERATION (Veo)
// ══════════════════════════════════════════════════════════════════════════════

// SeasonTrailerPrompt is the fixed prompt of the "Gerar Trailer" button.
const SeasonTrailerPrompt = "A cinematic trailer for a futuristic AI lab with neon-cyan and magenta aesthetic, floating holographic interfaces, and diverse happy children interacting with digital tools."

// ModuleVideoPrompt builds the synthesis prompt for a single module.
func ModuleVideoPrompt(moduleTitle string) string {
	return fmt.Sprintf("A high-tech cinematic educational video for children about %s. Friendly robots, floating glowing holographic neural networks, and vibrant neon colors. Hyper-detailed, 4k resolution.", moduleTitle)
}

// defaultVideoConfig matches the app's fixed render settings.
func defaultVideoConfig() *VideoConfig {
	return &VideoConfig{
		NumberOfVideos: 1,
		Resolution:     "720p",
		AspectRatio:    "16:9",
	}
}

// GenerateVideo starts a Veo generation for the given prompt, polls the
// long-running operation until it finishes and returns a playable URL.
// Blocks for minutes; callers run it inside a background task.
func (c *Client) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", shared.ErrEmptyValue
	}

	operation, err := c.startVideoOperation(ctx, prompt)
	if err != nil {
		return "", err
	}

	operation, err = c.waitForVideoOperation(ctx, operation)
	if err != nil {
		return "", err
	}

	uri := operation.FirstVideoURI()
	if uri == "" {
		return "", shared.ErrVideoGenerationFailed
	}

	return c.signedVideoURL(uri), nil
}

// startVideoOperation kicks off the long-running generation.
func (c *Client) startVideoOperation(ctx context.Context, prompt string) (*VideoOperation, error) {
	request := GenerateVideosRequest{
		Prompt: prompt,
		Config: defaultVideoConfig(),
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateVideos", VideoModel)

	var operation VideoOperation
	if err := c.doRequest(ctx, http.MethodPost, path, request, &operation); err != nil {
		return nil, fmt.Errorf("start video generation: %w", err)
	}
	if operation.Name == "" && !operation.Done {
		return nil, shared.ErrGeminiInvalidResponse
	}

	return &operation, nil
}

// waitForVideoOperation polls the operation until done, ctx cancellation
// or an operation-level error.
func (c *Client) waitForVideoOperation(ctx context.Context, operation *VideoOperation) (*VideoOperation, error) {
	for !operation.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.config.PollInterval):
		}

		path := "/v1beta/" + operation.Name

		var polled VideoOperation
		if err := c.doRequest(ctx, http.MethodGet, path, nil, &polled); err != nil {
			return nil, fmt.Errorf("poll video operation: %w", err)
		}
		operation = &polled

		if c.config.Debug {
			c.logger.Debug("video operation polled", "name", operation.Name, "done", operation.Done)
		}
	}

	if operation.Error != nil {
		c.logger.Error("video generation failed",
			"code", operation.Error.Code,
			"message", operation.Error.Message,
		)
		return nil, fmt.Errorf("%w: %s", shared.ErrVideoGenerationFailed, operation.Error.Message)
	}

	return operation, nil
}

// signedVideoURL appends the API key to the download link. The raw URI from
// the operation already carries query parameters, so the key joins with "&".
func (c *Client) signedVideoURL(uri string) string {
	return uri + "&key=" + c.config.APIKey
}
