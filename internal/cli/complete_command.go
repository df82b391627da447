package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/errors"
	"schedule-keeper/internal/services"
)

// CompleteCommand handles the complete and uncomplete commands
type CompleteCommand struct {
	root         *RootCommand
	errorHandler *ErrorHandler

	occurrenceDate string
	actual         string
	notes          string
}

// NewCompleteCommand creates a new complete command handler
func NewCompleteCommand(root *RootCommand) *CompleteCommand {
	return &CompleteCommand{
		root:         root,
		errorHandler: NewErrorHandler(),
	}
}

func (c *CompleteCommand) completeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <event-id>",
		Short: "Mark an event done",
		Long: `Marks an event done. A one-off event moves to the completion history and
leaves the schedule; a recurring event stays on the schedule and the chosen
occurrence is marked done.`,
		Args: cobra.ExactArgs(1),
		RunE: c.runComplete,
	}

	cmd.Flags().StringVar(&c.occurrenceDate, "on", "", "Occurrence date for a recurring event (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&c.actual, "actual", "", "Time range the task actually took (HH:MM-HH:MM)")
	cmd.Flags().StringVar(&c.notes, "notes", "", "Completion notes")

	return cmd
}

func (c *CompleteCommand) uncompleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "uncomplete <event-id>",
		Short: "Restore a completed event to the schedule",
		Long: `Moves a completed one-off event back onto the schedule. Recurring
occurrences cannot be restored this way; use delete-completed to clear the
occurrence instead.`,
		Args: cobra.ExactArgs(1),
		RunE: c.runUncomplete,
	}
}

func (c *CompleteCommand) runComplete(cmd *cobra.Command, args []string) error {
	id, err := parseEventID(args[0])
	if err != nil {
		return c.errorHandler.HandleSimple(err)
	}

	opts := services.CompleteOptions{
		OccurrenceDate:  c.occurrenceDate,
		CompletionNotes: c.notes,
	}
	if c.actual != "" {
		tr, err := domain.ParseTimeRange(c.actual)
		if err != nil {
			return c.errorHandler.HandleSimple(err)
		}
		opts.ActualTimeRange = &tr
	}

	ctx, cancel := c.root.commandContext(cmd)
	defer cancel()

	inst, err := c.root.api.CompleteEvent(ctx, id, opts)
	if err != nil {
		return c.errorHandler.Handle("complete event", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Completed '%s' (%s %s)\n", inst.Title, inst.Date, inst.TimeRange)
	return nil
}

func (c *CompleteCommand) runUncomplete(cmd *cobra.Command, args []string) error {
	id, err := parseEventID(args[0])
	if err != nil {
		return c.errorHandler.HandleSimple(err)
	}

	ctx, cancel := c.root.commandContext(cmd)
	defer cancel()

	event, err := c.root.api.UncompleteEvent(ctx, id)
	if err != nil {
		return c.errorHandler.Handle("restore event", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Restored '%s' (%s %s) as event %d\n", event.Title, event.Date, event.TimeRange, event.ID)
	return nil
}

// parseEventID parses a numeric event id argument
func parseEventID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidInputError("event-id", arg, "must be a positive integer")
	}
	return id, nil
}
