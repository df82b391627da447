package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DedupeCommand handles the dedupe command
type DedupeCommand struct {
	root         *RootCommand
	errorHandler *ErrorHandler
}

// NewDedupeCommand creates a new dedupe command handler
func NewDedupeCommand(root *RootCommand) *DedupeCommand {
	return &DedupeCommand{
		root:         root,
		errorHandler: NewErrorHandler(),
	}
}

// Command builds the cobra command
func (c *DedupeCommand) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Remove duplicate events",
		Long: `Removes stored events that duplicate another event exactly in title, date,
time range and event type, keeping the oldest copy of each.`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}
}

func (c *DedupeCommand) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := c.root.commandContext(cmd)
	defer cancel()

	removed, err := c.root.api.RemoveDuplicates(ctx)
	if err != nil {
		return c.errorHandler.Handle("remove duplicates", err)
	}

	if removed == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No duplicates found")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicate event(s)\n", removed)
	}
	return nil
}
