package config

import (
	"context"
	"fmt"
	"os"

	"github.com/smallnest/collabgraph/graph"
	"github.com/smallnest/collabgraph/log"
	"github.com/smallnest/collabgraph/store"
	"github.com/smallnest/collabgraph/store/file"
	"github.com/smallnest/collabgraph/store/memory"
	"github.com/smallnest/collabgraph/store/postgres"
	"github.com/smallnest/collabgraph/store/redis"
	"github.com/smallnest/collabgraph/store/sqlite"
	"github.com/smallnest/collabgraph/tool"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewModel builds an OpenAI-compatible chat model from the [llm] section.
func (c *Config) NewModel() (llms.Model, error) {
	opts := []openai.Option{openai.WithModel(c.LLM.Model)}
	if c.LLM.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(c.LLM.BaseURL))
	}
	if key := c.APIKey(); key != "" {
		opts = append(opts, openai.WithToken(key))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}
	return model, nil
}

// OpenStore builds the configured checkpoint store. The returned function
// releases its connections.
func (c *Config) OpenStore(ctx context.Context) (store.CheckpointStore, func(), error) {
	cp := c.Checkpoint
	switch cp.Backend {
	case "", "memory":
		return memory.NewMemoryCheckpointStore(), func() {}, nil
	case "file":
		s, err := file.NewFileCheckpointStore(cp.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "redis":
		s := redis.NewRedisCheckpointStore(redis.RedisOptions{
			Addr:     cp.Addr,
			Password: cp.Password,
			DB:       cp.DB,
			Prefix:   cp.Prefix,
			TTL:      cp.TTL.Duration,
		})
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		s, err := postgres.NewPostgresCheckpointStore(ctx, postgres.PostgresOptions{
			ConnString: cp.DSN,
			TableName:  cp.Table,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := s.InitSchema(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	case "sqlite":
		s, err := sqlite.NewSqliteCheckpointStore(sqlite.SqliteOptions{
			Path:      cp.Path,
			TableName: cp.Table,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown checkpoint backend %q", cp.Backend)
	}
}

// NewSearcher builds the configured web search backend.
func (c *Config) NewSearcher() (tool.Searcher, error) {
	key := ""
	if c.Search.APIKeyEnv != "" {
		key = os.Getenv(c.Search.APIKeyEnv)
	}
	switch c.Search.Provider {
	case "", "tavily":
		return tool.NewTavilySearch(key)
	case "brave":
		return tool.NewBraveSearch(key)
	default:
		return nil, fmt.Errorf("unknown search provider %q", c.Search.Provider)
	}
}

// NewLogger builds a golog-backed logger at the configured level.
func (c *Config) NewLogger() (log.Logger, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return log.NewGologLoggerWithLevel(level), nil
}

// GraphOptions returns the compile options for the configured limits. A nil
// checkpointer keeps the graph's in-memory default.
func (c *Config) GraphOptions(checkpointer store.CheckpointStore, logger log.Logger) []graph.Option {
	opts := []graph.Option{
		graph.WithMaxSteps(c.Graph.MaxSteps),
		graph.WithLogger(logger),
	}
	if checkpointer != nil {
		opts = append(opts, graph.WithCheckpointer(checkpointer))
	}
	if c.Graph.NodeTimeout.Duration > 0 {
		opts = append(opts, graph.WithNodeTimeout(c.Graph.NodeTimeout.Duration))
	}
	return opts
}
