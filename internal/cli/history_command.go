package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/errors"
	"schedule-keeper/internal/repository"
)

// HistoryCommand handles the history, reflect and delete-completed commands
type HistoryCommand struct {
	root         *RootCommand
	errorHandler *ErrorHandler

	from  string
	to    string
	limit int
}

// NewHistoryCommand creates a new history command handler
func NewHistoryCommand(root *RootCommand) *HistoryCommand {
	return &HistoryCommand{
		root:         root,
		errorHandler: NewErrorHandler(),
	}
}

func (c *HistoryCommand) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show completed events, newest first",
		Args:  cobra.NoArgs,
		RunE:  c.runHistory,
	}

	cmd.Flags().StringVar(&c.from, "from", "", "Earliest event date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&c.to, "to", "", "Latest event date to include (YYYY-MM-DD)")
	cmd.Flags().IntVar(&c.limit, "limit", 0, "Maximum number of records to show (0 means all)")

	return cmd
}

func (c *HistoryCommand) reflectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reflect <task-id> <notes...>",
		Short: "Attach reflection notes to a completed event",
		Args:  cobra.MinimumNArgs(2),
		RunE:  c.runReflect,
	}
}

func (c *HistoryCommand) deleteCompletedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-completed <task-id>",
		Short: "Remove a completion record",
		Long: `Removes a completion record from the history. For a recurring event the
occurrence marker is removed too, so that occurrence can be completed again.`,
		Args: cobra.ExactArgs(1),
		RunE: c.runDeleteCompleted,
	}
}

func (c *HistoryCommand) runHistory(cmd *cobra.Command, args []string) error {
	opts := repository.SearchOptions{Limit: c.limit}
	if c.from != "" {
		if _, err := domain.ParseDate(c.from); err != nil {
			return c.errorHandler.HandleSimple(errors.NewInvalidDateFormatError(c.from))
		}
		opts.DateFrom = &c.from
	}
	if c.to != "" {
		if _, err := domain.ParseDate(c.to); err != nil {
			return c.errorHandler.HandleSimple(errors.NewInvalidDateFormatError(c.to))
		}
		opts.DateTo = &c.to
	}

	ctx, cancel := c.root.commandContext(cmd)
	defer cancel()

	completions, err := c.root.api.ListCompletions(ctx, opts)
	if err != nil {
		return c.errorHandler.Handle("list completions", err)
	}

	out := cmd.OutOrStdout()
	if len(completions) == 0 {
		fmt.Fprintln(out, "No completed events")
		return nil
	}
	for _, inst := range completions {
		line := fmt.Sprintf("%4d  %s  %s  %-10s %s", inst.TaskID, inst.Date, inst.TimeRange, inst.EventType, inst.Title)
		if inst.ActualTimeRange != nil {
			line += fmt.Sprintf("  (actual %s)", inst.ActualTimeRange)
		}
		fmt.Fprintln(out, line)
		if inst.CompletionNotes != nil {
			fmt.Fprintf(out, "      notes: %s\n", *inst.CompletionNotes)
		}
		if inst.ReflectionNotes != nil {
			fmt.Fprintf(out, "      reflection: %s\n", *inst.ReflectionNotes)
		}
	}
	return nil
}

func (c *HistoryCommand) runReflect(cmd *cobra.Command, args []string) error {
	id, err := parseEventID(args[0])
	if err != nil {
		return c.errorHandler.HandleSimple(err)
	}
	notes := strings.Join(args[1:], " ")

	ctx, cancel := c.root.commandContext(cmd)
	defer cancel()

	if err := c.root.api.AddReflection(ctx, id, notes); err != nil {
		return c.errorHandler.Handle("add reflection", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reflection saved for task %d\n", id)
	return nil
}

func (c *HistoryCommand) runDeleteCompleted(cmd *cobra.Command, args []string) error {
	id, err := parseEventID(args[0])
	if err != nil {
		return c.errorHandler.HandleSimple(err)
	}

	ctx, cancel := c.root.commandContext(cmd)
	defer cancel()

	if err := c.root.api.DeleteCompleted(ctx, id); err != nil {
		return c.errorHandler.Handle("delete completion", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Completion record for task %d removed\n", id)
	return nil
}
