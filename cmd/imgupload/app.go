package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/config"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/migrate"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/source"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/store"
)

// collection is the source side of a run. *source.Collection satisfies it.
type collection interface {
	migrate.Source
	Name() string
	Close(ctx context.Context) error
}

// openSource connects to the source collection. Replaced in tests.
var openSource = func(ctx context.Context, opts source.Options) (collection, error) {
	c, err := source.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// sourceOptions maps the configuration to source.Options.
func sourceOptions(cfg config.Config) source.Options {
	return source.Options{
		URI:        cfg.MongoURI,
		Database:   cfg.Database,
		Collection: cfg.Collection,
		Fields: source.Fields{
			Owner:       cfg.Fields.Owner,
			Media:       cfg.Fields.Media,
			URL:         cfg.Fields.URL,
			Kind:        cfg.Fields.Kind,
			DefaultKind: cfg.Fields.DefaultKind,
		},
	}
}

// openEndpoints connects to MongoDB and then to the bucket. On success the
// caller owns both and must close them with closeEndpoints.
func openEndpoints(ctx context.Context, cfg config.Config, logger *slog.Logger) (collection, *store.Store, error) {
	src, err := openSource(ctx, sourceOptions(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("mongodb: %w", err)
	}
	logger.Info("connected to mongodb", "collection", src.Name())

	st, err := store.Open(ctx, store.Options{
		Bucket:          cfg.Bucket,
		CredentialsJSON: cfg.CredentialsJSON,
		Prefix:          cfg.ObjectPrefix,
	})
	if err != nil {
		closeSource(src, logger)
		return nil, nil, fmt.Errorf("bucket: %w", err)
	}
	if err := st.CheckAccess(ctx); err != nil {
		closeSource(src, logger)
		_ = st.Close()
		return nil, nil, fmt.Errorf("bucket: %w", err)
	}
	logger.Info("bucket is accessible", "bucket", st.Name())

	return src, st, nil
}

// closeEndpoints releases what openEndpoints returned.
func closeEndpoints(src collection, st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Warn("failed to close bucket", "error", err)
	}
	closeSource(src, logger)
}

func closeSource(src collection, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := src.Close(ctx); err != nil {
		logger.Warn("failed to close mongodb connection", "error", err)
	}
}
