package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/coursegate/coursegate"
)

func NewCheckCmd(log *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] scenario-file",
		Short: "Evaluate a single access check described by a YAML scenario",
		Args:  cobra.ExactArgs(1),
	}

	var (
		action string
	)

	flags := cmd.Flags()
	flags.StringVar(&action, "action", "", "action to check, overrides the scenario's action")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		scenario, err := LoadScenario(args[0])
		if err != nil {
			return err
		}
		if action != "" {
			scenario.Action = action
		}

		checker, actor, course, scope, err := scenario.Build(ctx)
		if err != nil {
			return err
		}

		allowed, err := checker.Check(ctx, actor, coursegate.Action(scenario.Action), course, scope)
		if err != nil {
			return err
		}

		log.Info("check evaluated",
			slog.String("actor", actor.ID),
			slog.String("action", scenario.Action),
			slog.String("course", course.ID.String()),
			slog.Bool("allowed", allowed),
		)
		if !allowed {
			return fmt.Errorf("%s denied %q on %s", actor.ID, scenario.Action, course.ID)
		}
		fmt.Printf("%s allowed %q on %s\n", actor.ID, scenario.Action, course.ID)
		return nil
	}

	return cmd
}
