package cli

import (
	"context"
	"fmt"

	"github.com/alanmeadows/prwright/internal/ado"
	"github.com/alanmeadows/prwright/internal/agent"
	"github.com/alanmeadows/prwright/internal/config"
	"github.com/alanmeadows/prwright/internal/history"
	"github.com/alanmeadows/prwright/internal/llm"
	"github.com/alanmeadows/prwright/internal/pr"
	"github.com/alanmeadows/prwright/internal/request"
)

// newHistoryStore opens the configured history directory.
func newHistoryStore(cfg *config.Config) *history.Store {
	return history.NewStore(cfg.HistoryDir(), cfg.History.MaxEntries)
}

// newRunner builds the full request pipeline from cfg.
func newRunner(ctx context.Context, cfg *config.Config, store *history.Store) (*request.Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := ado.NewClient(ado.NewAuthProvider(cfg.ADO.PAT),
		ado.WithBaseURL(cfg.ADO.BaseURL),
		ado.WithRateLimit(cfg.ADO.RequestsPerSecond),
	)

	model, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Models.Primary)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	submitter := pr.NewSubmitter(client, cfg.Submit.IndexPollAttempts, cfg.Submit.ParseIndexPollInterval())
	planner := pr.NewPlanner(client, model, submitter)
	controller := agent.NewController(client, planner.Resolver(), planner, model, agent.Config{
		CallThreshold:  cfg.Agent.CallThreshold,
		ForcedAttempts: cfg.Agent.ForcedAttempts,
		MaxFailures:    cfg.Agent.MaxFailures,
	})

	var hist request.HistoryStore
	if store != nil {
		hist = store
	}
	return request.NewRunner(planner, controller, hist), nil
}
