package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/aikidslabs/ai-kids-hub/internal/application/task"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/catalog"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// START TRAILER COMMAND
// Kicks off AI trailer generation: the cinematic season trailer when no
// item is named, or a module synthesis video for a specific catalog item.
// The command returns immediately with a pending task the client polls.
// ══════════════════════════════════════════════════════════════════════════════

// TrailerPrompter builds the generation prompts. The concrete prompt text
// lives with the Gemini client, next to the model it is tuned for.
type TrailerPrompter interface {
	// SeasonTrailerPrompt is the prompt for the hub-wide season trailer.
	SeasonTrailerPrompt() string

	// ModuleVideoPrompt is the prompt for one module's synthesis video.
	ModuleVideoPrompt(moduleTitle string) string
}

// StartTrailerCommand contains the data to start a trailer task.
type StartTrailerCommand struct {
	// LearnerID is the requesting profile.
	LearnerID string

	// ItemID selects a module video when set; empty requests the
	// season trailer.
	ItemID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c StartTrailerCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("start_trailer: learner_id is required")
	}
	return nil
}

// StartTrailerResult contains the accepted task.
type StartTrailerResult struct {
	// Task is the pending trailer task.
	Task task.Task
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// StartTrailerHandler handles the StartTrailerCommand.
type StartTrailerHandler struct {
	catalog *catalog.Catalog
	tasks   *task.Manager
	prompts TrailerPrompter
}

// NewStartTrailerHandler creates a new StartTrailerHandler.
func NewStartTrailerHandler(cat *catalog.Catalog, tasks *task.Manager, prompts TrailerPrompter) *StartTrailerHandler {
	return &StartTrailerHandler{catalog: cat, tasks: tasks, prompts: prompts}
}

// Handle executes the start trailer command.
func (h *StartTrailerHandler) Handle(ctx context.Context, cmd StartTrailerCommand) (*StartTrailerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("start_trailer: validation failed: %w", err)
	}

	prompt := h.prompts.SeasonTrailerPrompt()
	if cmd.ItemID != "" {
		itemID, err := shared.ParseItemID(cmd.ItemID)
		if err != nil {
			return nil, fmt.Errorf("start_trailer: %w", err)
		}
		item, err := h.catalog.Get(itemID)
		if err != nil {
			return nil, fmt.Errorf("start_trailer: %w", err)
		}
		prompt = h.prompts.ModuleVideoPrompt(item.Title)
	}

	t, err := h.tasks.Start(cmd.LearnerID, cmd.ItemID, prompt)
	if err != nil {
		return nil, fmt.Errorf("start_trailer: %w", err)
	}

	return &StartTrailerResult{Task: t}, nil
}
