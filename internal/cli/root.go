package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"schedule-keeper/internal/api"
	"schedule-keeper/internal/config"
)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd    *cobra.Command
	api    api.API
	config *config.Config
}

// NewRootCommand creates the root cobra command with all subcommands attached
func NewRootCommand(apiInstance api.API, cfg *config.Config) *RootCommand {
	root := &RootCommand{
		api:    apiInstance,
		config: cfg,
	}

	root.cmd = &cobra.Command{
		Use:   "sk",
		Short: "Reconcile assistant-proposed schedule changes against a stored schedule",
		Long: `Schedule Keeper (sk) applies schedule changes proposed by a planning
assistant to a persistent schedule, checking each change for time conflicts.

EXAMPLES:
  sk reconcile plan.txt                    # Apply changes from a file
  cat plan.txt | sk reconcile -            # Apply changes from stdin
  sk reconcile plan.txt --policy skip      # Skip conflicting changes instead of rejecting
  sk reconcile plan.txt --recurrence weekly --until 2026-12-31
  sk list 2026-09-01                       # Show the schedule for a date
  sk complete 12                           # Mark event 12 done
  sk complete 12 --on 2026-09-01           # Mark one occurrence of a recurring event done
  sk uncomplete 12                         # Restore a completed event
  sk history --from 2026-08-01             # Show completion history
  sk reflect 12 "went longer than planned" # Attach reflection notes
  sk dedupe                                # Remove duplicate events

CONFIGURATION:
  Configuration cascades: defaults, then the YAML config file, then
  environment variables.

    SK_CONFIG                    Config file path (default: ~/.sk/config.yaml)
    SK_DB_BACKEND                Storage backend: sqlite or csv (default: sqlite)
    SK_DB_DIR                    Database directory (default: ~/.sk)
    SK_DB_FILENAME               Database filename (default: schedule.db)
    SK_CSV_DIR                   CSV store directory (default: ~/.sk/csv)
    SK_DEFAULT_POLICY            Conflict policy: reject, skip or force (default: reject)
    SK_RECURRENCE_HORIZON_DAYS   Open-ended series horizon (default: 365)
    SK_APP_TIMEOUT               Command timeout (default: 60s)
    SK_DEBUG                     Enable debug logging`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.addSubcommands()

	return root
}

// Execute runs the root command
func (r *RootCommand) Execute(ctx context.Context) error {
	return r.cmd.ExecuteContext(ctx)
}

func (r *RootCommand) addSubcommands() {
	r.cmd.AddCommand(
		NewReconcileCommand(r).Command(),
		NewListCommand(r).Command(),
		NewCompleteCommand(r).completeCommand(),
		NewCompleteCommand(r).uncompleteCommand(),
		NewHistoryCommand(r).historyCommand(),
		NewHistoryCommand(r).reflectCommand(),
		NewHistoryCommand(r).deleteCompletedCommand(),
		NewDedupeCommand(r).Command(),
	)
}

// commandContext derives a per-command context bounded by the configured
// application timeout.
func (r *RootCommand) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout := 60 * time.Second
	if r.config != nil && r.config.Application.Timeout > 0 {
		timeout = r.config.Application.Timeout
	}
	return context.WithTimeout(cmd.Context(), timeout)
}
