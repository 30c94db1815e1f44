package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"remotetodos/internal/domain"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos with their positions",
		Long: `List todos with the positions edit, toggle and rm take.

Positions count only the todos the server could decode. A corrupt stored
element shifts the backend position of every todo after it, so run list
again if another client may have changed the list.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := domain.ParseFilter(filter)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "invalid --filter", Err: err}
			}

			visible, active, err := rootOpts.Client().ListFiltered(cmd.Context(), f)
			if err != nil {
				return err
			}
			return formatter(rootOpts, cmd).List(visible, active)
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", string(domain.FilterAll), "which todos to show: "+domain.FilterNames())
	return cmd
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var done bool

	cmd := &cobra.Command{
		Use:   "add <description>...",
		Short: "Append a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, err := joinDescription(args)
			if err != nil {
				return err
			}

			c := rootOpts.Client()
			created, err := c.Create(cmd.Context(), domain.Todo{Description: description, Completed: done})
			if err != nil {
				return err
			}

			// The API does not return the new position; the tail is the best
			// guess and is exact without concurrent writers.
			todos, err := c.List(cmd.Context())
			if err != nil {
				return err
			}
			return formatter(rootOpts, cmd).Todo("added", domain.IndexedTodo{Index: int64(len(todos) - 1), Todo: created})
		},
	}

	cmd.Flags().BoolVar(&done, "done", false, "create the todo already completed")
	return cmd
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <index> <description>...",
		Short: "Change the description of a todo, keeping its state",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			description, err := joinDescription(args[1:])
			if err != nil {
				return err
			}

			c := rootOpts.Client()
			todos, err := c.List(cmd.Context())
			if err != nil {
				return err
			}
			if index >= int64(len(todos)) {
				return &ExitError{Code: ExitNotFound, Message: fmt.Sprintf("no todo at position %d", index)}
			}

			updated, err := c.Update(cmd.Context(), index, domain.Todo{
				Description: description,
				Completed:   todos[index].Completed,
			})
			if err != nil {
				return err
			}
			return formatter(rootOpts, cmd).Todo("updated", domain.IndexedTodo{Index: index, Todo: updated})
		},
	}
}

// NewToggleCommand creates the toggle command.
func NewToggleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <index>",
		Short: "Flip a todo between active and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			toggled, err := rootOpts.Client().Toggle(cmd.Context(), index)
			if err != nil {
				return err
			}
			return formatter(rootOpts, cmd).Todo("toggled", domain.IndexedTodo{Index: index, Todo: toggled})
		},
	}
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"delete"},
		Short:   "Remove a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			removed, err := rootOpts.Client().Delete(cmd.Context(), index)
			if err != nil {
				return err
			}
			return formatter(rootOpts, cmd).Todo("removed", domain.IndexedTodo{Index: index, Todo: removed})
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every completed todo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := rootOpts.Client().ClearCompleted(cmd.Context())
			if err != nil {
				return err
			}
			return formatter(rootOpts, cmd).Cleared(n)
		},
	}
}

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

func parseIndex(s string) (int64, error) {
	index, err := strconv.ParseInt(s, 10, 64)
	if err != nil || index < 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid index %q: must be a non-negative integer", s))
	}
	return index, nil
}

func joinDescription(args []string) (string, error) {
	description := strings.TrimSpace(strings.Join(args, " "))
	if description == "" {
		return "", NewExitError(ExitCommandError, "description must not be empty")
	}
	return description, nil
}
