package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/igsrindex/internal/config"
	"github.com/kailas-cloud/igsrindex/internal/db"
	"github.com/kailas-cloud/igsrindex/internal/db/elasticsearch"
	"github.com/kailas-cloud/igsrindex/internal/db/redis"
	"github.com/kailas-cloud/igsrindex/internal/db/sqldb"
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/repository/descriptor"
	"github.com/kailas-cloud/igsrindex/internal/repository/source"
	"github.com/kailas-cloud/igsrindex/internal/usecase/plan"
)

// backend is everything a run talks to.
type backend struct {
	source      *source.Repo
	store       db.Store
	descriptors plan.DescriptorLoader
	close       func()
}

type connectFunc func(ctx context.Context, cfg config.Config) (*backend, error)

// connect opens the row source and the document store from cfg and waits
// until both answer.
func connect(ctx context.Context, cfg config.Config) (*backend, error) {
	dialect, err := sqldb.ParseDialect(cfg.Source.Driver)
	if err != nil {
		return nil, err
	}
	conn, err := sqldb.Open(ctx, sqldb.Config{
		Driver:   dialect,
		DSN:      cfg.Source.DSN,
		Host:     cfg.Source.Host,
		Port:     cfg.Source.Port,
		User:     cfg.Source.User,
		Password: cfg.Source.Password,
		Name:     cfg.Source.Name,
	}, seconds(cfg.Source.ReadinessTimeout))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	store, err := newStore(cfg.Store)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := store.WaitForReady(ctx, seconds(cfg.Store.ReadinessTimeout)); err != nil {
		store.Close()
		_ = conn.Close()
		return nil, db.ToDomain(err)
	}

	loader, err := newDescriptorLoader(ctx, cfg)
	if err != nil {
		store.Close()
		_ = conn.Close()
		return nil, err
	}

	return &backend{
		source:      source.New(conn, dialect),
		store:       store,
		descriptors: loader,
		close: func() {
			store.Close()
			_ = conn.Close()
		},
	}, nil
}

func newStore(cfg config.StoreConfig) (db.Store, error) {
	switch cfg.Driver {
	case "elasticsearch":
		return elasticsearch.NewStore(elasticsearch.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			Refresh:  cfg.Refresh,
		})
	case "redis":
		return redis.NewStore(redis.Config{
			Addrs:     cfg.Addrs,
			Username:  cfg.Username,
			Password:  cfg.Password,
			KeyPrefix: cfg.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// newDescriptorLoader resolves descriptor locations per kind. An S3 client is
// only built when some location lives in object storage.
func newDescriptorLoader(ctx context.Context, cfg config.Config) (*descriptor.Loader, error) {
	opts := make([]descriptor.Option, 0, len(domain.Kinds())+1)
	needS3 := strings.HasPrefix(cfg.Descriptors.Dir, "s3://")
	for _, k := range domain.Kinds() {
		loc := cfg.Index(string(k)).Descriptor
		needS3 = needS3 || strings.HasPrefix(loc, "s3://")
		opts = append(opts, descriptor.WithLocation(k, loc))
	}
	if needS3 {
		s3cfg := cfg.Descriptors.S3
		client, err := descriptor.NewS3Client(ctx, descriptor.S3Config{
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			PathStyle:       s3cfg.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: s3 client: %w", domain.ErrInvalidDescriptor, err)
		}
		opts = append(opts, descriptor.WithObjectStore(client))
	}
	return descriptor.New(cfg.Descriptors.Dir, opts...), nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
