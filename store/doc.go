// Package store defines checkpoint persistence for graph runs.
//
// A Checkpoint is written after every merged step of a thread and holds the JSON
// encoding of the state together with the node that will run next. Runs on the
// same thread resume from the latest checkpoint.
//
// Implementations live in sub-packages:
//
//   - store/memory: process-local maps, the default
//   - store/file: one JSON document per checkpoint on disk
//   - store/redis: github.com/redis/go-redis/v9, optional TTL
//   - store/postgres: github.com/jackc/pgx/v5 with JSONB columns
//   - store/sqlite: github.com/mattn/go-sqlite3
//
// Example:
//
//	cps, err := sqlite.NewSqliteCheckpointStore(sqlite.SqliteOptions{Path: "./checkpoints.db"})
//	if err != nil {
//		return err
//	}
//	defer cps.Close()
//
//	app, err := g.Compile(graph.WithCheckpointer(cps))
package store
