package main

import (
	"context"
	"fmt"
	"os"

	"schedule-keeper/internal/api"
	"schedule-keeper/internal/cli"
	"schedule-keeper/internal/config"
)

func main() {
	cfg, err := config.NewLoader().Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	repo, err := createRepository(getEnvironment(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating repository: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	apiInstance := api.New(repo, cfg.Reconcile.RecurrenceHorizonDays)
	root := cli.NewRootCommand(apiInstance, cfg)

	if err := root.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
