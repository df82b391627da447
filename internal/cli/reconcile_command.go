package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"schedule-keeper/internal/conflict"
	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/errors"
	"schedule-keeper/internal/services"
)

// ReconcileCommand handles the reconcile command
type ReconcileCommand struct {
	root         *RootCommand
	errorHandler *ErrorHandler

	policy     string
	recurrence string
	until      string
}

// NewReconcileCommand creates a new reconcile command handler
func NewReconcileCommand(root *RootCommand) *ReconcileCommand {
	return &ReconcileCommand{
		root:         root,
		errorHandler: NewErrorHandler(),
	}
}

// Command builds the cobra command
func (c *ReconcileCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [file]",
		Short: "Apply assistant-proposed schedule changes",
		Long: `Reads assistant text from a file (or stdin when the argument is "-" or
omitted), extracts the proposed operations and applies them to the stored
schedule. Deletions run first, then modifications, then additions, so a batch
can free a slot and refill it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.run,
	}

	defaultPolicy := "reject"
	if c.root.config != nil && c.root.config.Reconcile.DefaultPolicy != "" {
		defaultPolicy = c.root.config.Reconcile.DefaultPolicy
	}
	cmd.Flags().StringVar(&c.policy, "policy", defaultPolicy, "Conflict policy: reject, skip or force")
	cmd.Flags().StringVar(&c.recurrence, "recurrence", "", "Make additions recurring: daily, weekly, weekdays, monthly or yearly")
	cmd.Flags().StringVar(&c.until, "until", "", "Inclusive last date of the recurring series (YYYY-MM-DD)")

	return cmd
}

func (c *ReconcileCommand) run(cmd *cobra.Command, args []string) error {
	text, err := c.readInput(args)
	if err != nil {
		return c.errorHandler.Handle("read input", err)
	}

	opts := services.ReconcileOptions{
		Policy: conflict.ParsePolicy(c.policy),
	}
	if c.recurrence != "" {
		rule := domain.RecurrenceRule(c.recurrence)
		if !rule.IsValid() || !rule.IsRecurring() {
			return c.errorHandler.HandleSimple(errors.NewUnsupportedRecurrenceRuleError(c.recurrence))
		}
		opts.Recurrence = rule
	}
	if c.until != "" {
		if _, err := domain.ParseDate(c.until); err != nil {
			return c.errorHandler.HandleSimple(errors.NewInvalidDateFormatError(c.until))
		}
		opts.RecurrenceEnd = c.until
	}

	ctx, cancel := c.root.commandContext(cmd)
	defer cancel()

	summary, err := c.root.api.Reconcile(ctx, text, opts)
	if err != nil {
		return c.errorHandler.Handle("reconcile schedule", err)
	}

	c.printSummary(cmd, summary)
	return nil
}

// readInput reads assistant text from the named file, or stdin when no file
// or "-" is given.
func (c *ReconcileCommand) readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *ReconcileCommand) printSummary(cmd *cobra.Command, summary *services.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Batch %s\n", summary.BatchID)
	fmt.Fprintf(out, "  added: %d  modified: %d  deleted: %d  unchanged: %d  skipped: %d\n",
		summary.Added, summary.Modified, summary.Deleted, summary.Unchanged, summary.Skipped)
	if len(summary.Warnings) > 0 {
		fmt.Fprintf(out, "Warnings:\n  %s\n", strings.Join(summary.Warnings, "\n  "))
	}
	if len(summary.Errors) > 0 {
		fmt.Fprintf(out, "Errors:\n  %s\n", strings.Join(summary.Errors, "\n  "))
	}
}
