//go:build integration

// Package dbtest starts a throwaway migrated Postgres for integration tests.
package dbtest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ToonLance/freelancer-nest-profile/internal/db"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

// Start runs postgres in docker, connects and applies the schema. stop
// closes the connection and removes the container.
func Start() (database *db.DB, stop func(), err error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, fmt.Errorf("could not construct pool: %w", err)
	}
	pool.MaxWait = 120 * time.Second

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=nest",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=nest",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not start postgres: %w", err)
	}

	dsn := fmt.Sprintf("postgres://nest:secret@%s/nest?sslmode=disable", resource.GetHostPort("5432/tcp"))

	if err := pool.Retry(func() error {
		var openErr error
		database, openErr = db.Open(context.Background(), dsn)
		return openErr
	}); err != nil {
		_ = pool.Purge(resource)
		return nil, nil, fmt.Errorf("could not connect to postgres: %w", err)
	}

	if err := db.Migrate(context.Background(), database); err != nil {
		_ = database.Close()
		_ = pool.Purge(resource)
		return nil, nil, fmt.Errorf("could not migrate: %w", err)
	}

	stop = func() {
		_ = database.Close()
		if err := pool.Purge(resource); err != nil {
			log.Printf("could not purge postgres: %s", err)
		}
	}
	return database, stop, nil
}
