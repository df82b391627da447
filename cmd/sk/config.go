package main

import (
	"fmt"
	"os"

	"schedule-keeper/internal/config"
	"schedule-keeper/internal/repository"
	"schedule-keeper/internal/repository/sqlite"
)

// Environment represents the current environment
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

// getEnvironment determines the current environment from SK_ENV
func getEnvironment() Environment {
	switch os.Getenv("SK_ENV") {
	case "development":
		return Development
	case "testing":
		return Testing
	default:
		return Production
	}
}

// createRepository creates a repository for the current environment.
// Development uses a local database file in the working directory, testing an
// in-memory one, and production the configured backend.
func createRepository(env Environment, cfg *config.Config) (repository.Repository, error) {
	switch env {
	case Development:
		repo, err := sqlite.New("sk.db")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize development database: %w", err)
		}
		return repo, nil
	case Testing:
		return config.CreateTestRepository()
	default:
		return config.CreateRepository(cfg)
	}
}
