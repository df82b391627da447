package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/errors"
	"schedule-keeper/internal/repository"
)

// ListCommand handles the list command
type ListCommand struct {
	root         *RootCommand
	errorHandler *ErrorHandler

	from   string
	to     string
	limit  int
	blocks bool
}

// NewListCommand creates a new list command handler
func NewListCommand(root *RootCommand) *ListCommand {
	return &ListCommand{
		root:         root,
		errorHandler: NewErrorHandler(),
	}
}

// Command builds the cobra command
func (c *ListCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [date]",
		Short: "Show stored events",
		Long: `Shows stored events, optionally restricted to one date or a date range.
Recurring series appear once, on their start date, tagged with their rule.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.run,
	}

	cmd.Flags().StringVar(&c.from, "from", "", "Earliest date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&c.to, "to", "", "Latest date to include (YYYY-MM-DD)")
	cmd.Flags().IntVar(&c.limit, "limit", 0, "Maximum number of events to show (0 means all)")
	cmd.Flags().BoolVar(&c.blocks, "blocks", false, "Render as labeled blocks the assistant can read back")

	return cmd
}

func (c *ListCommand) run(cmd *cobra.Command, args []string) error {
	opts := repository.SearchOptions{Limit: c.limit}
	if len(args) == 1 {
		if _, err := domain.ParseDate(args[0]); err != nil {
			return c.errorHandler.HandleSimple(errors.NewInvalidDateFormatError(args[0]))
		}
		opts.DateFrom = &args[0]
		opts.DateTo = &args[0]
	} else {
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
	}

	ctx, cancel := c.root.commandContext(cmd)
	defer cancel()

	events, err := c.root.api.ListEvents(ctx, opts)
	if err != nil {
		return c.errorHandler.Handle("list events", err)
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(out, "No events found")
		return nil
	}

	if c.blocks {
		fmt.Fprint(out, c.root.api.FormatSchedule(events))
		return nil
	}

	for _, e := range events {
		line := fmt.Sprintf("%4d  %s  %s  %-10s %s", e.ID, e.Date, e.TimeRange, e.EventType, e.Title)
		if e.Recurrence.IsRecurring() {
			line += fmt.Sprintf("  (%s)", e.Recurrence)
		}
		if e.Deadline != nil {
			line += fmt.Sprintf("  deadline %s", *e.Deadline)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
