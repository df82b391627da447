package config

import (
	"fmt"
	"os"

	"schedule-keeper/internal/repository"
	"schedule-keeper/internal/repository/csvfile"
	"schedule-keeper/internal/repository/sqlite"
)

// CreateRepository creates a repository instance for the configured backend
func CreateRepository(config *Config) (repository.Repository, error) {
	switch config.Database.Backend {
	case BackendCSV:
		repo, err := csvfile.New(config.Database.CSVDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize CSV store: %w", err)
		}
		return repo, nil
	default:
		if err := os.MkdirAll(config.Database.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		repo, err := sqlite.New(config.GetDatabasePath())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repo, nil
	}
}

// CreateTestRepository creates an in-memory repository for testing
func CreateTestRepository() (repository.Repository, error) {
	repo, err := sqlite.New(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize test database: %w", err)
	}
	return repo, nil
}
