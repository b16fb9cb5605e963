package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/opportunity-agent/internal/pipeline"
	"github.com/sells-group/opportunity-agent/internal/store"
	anthropicpkg "github.com/sells-group/opportunity-agent/pkg/anthropic"
	"github.com/sells-group/opportunity-agent/pkg/blob"
	"github.com/sells-group/opportunity-agent/pkg/search"
)

// pipelineEnv holds the initialized store, clients, and pipeline used by the
// serve and analyze commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens and migrates the configured record store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initSearch builds the directory client, or its not-configured stub when
// the search settings are absent.
func initSearch() search.Client {
	if !cfg.SearchConfigured() {
		zap.L().Warn("env: search service not configured, directory stages will refuse")
		return &pipeline.NotConfiguredSearch{}
	}
	return search.NewClient(cfg.Search.Endpoint, cfg.Search.Key, cfg.Search.TeamsIndex)
}

// initPipeline builds every collaborator eagerly. Services whose settings
// are missing are represented by not-configured stubs so that only the
// stages needing them fail, with a SERVICE_NOT_CONFIGURED classification.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	searchClient := initSearch()

	var aiClient anthropicpkg.Client
	if cfg.AnthropicConfigured() {
		aiClient = anthropicpkg.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Warn("env: anthropic not configured, analysis stage will refuse")
		aiClient = &pipeline.NotConfiguredAnthropic{}
	}

	var blobClient blob.Client
	if cfg.StorageConfigured() {
		blobClient, err = blob.NewClient(
			cfg.Storage.AccountName,
			cfg.Storage.AccountKey,
			cfg.Storage.Endpoint,
			cfg.Storage.Container,
			cfg.Storage.LinkValidDays,
		)
		if err != nil {
			zap.L().Warn("env: blob client construction failed, reports will be skipped", zap.Error(err))
			blobClient = &pipeline.NotConfiguredBlob{}
		} else if err := blobClient.EnsureContainer(ctx); err != nil {
			zap.L().Warn("env: report container check failed", zap.Error(err))
		}
	} else {
		zap.L().Warn("env: storage not configured, reports will be skipped")
		blobClient = &pipeline.NotConfiguredBlob{}
	}

	return &pipelineEnv{
		Store:    st,
		Pipeline: pipeline.New(cfg, st, searchClient, aiClient, blobClient),
	}, nil
}
