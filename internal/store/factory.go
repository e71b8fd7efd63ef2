package store

import (
	"context"
	"errors"
	"strings"
)

const (
	EngineJSON     = "json"
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
	EngineMongo    = "mongo"
)

// NewByEngine opens the configured backend. dsn is a file path for json and
// sqlite and a connection URI for postgres and mongo.
func NewByEngine(ctx context.Context, engine string, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineSQLite:
		return NewSQLiteStore(ctx, dsn)
	case EngineJSON:
		return NewJSONStore(dsn)
	case EnginePostgres, "postgresql":
		return NewPostgresStore(ctx, dsn)
	case EngineMongo, "mongodb":
		return NewMongoStore(ctx, dsn, "")
	default:
		return nil, errors.New("unsupported store engine: " + engine)
	}
}
