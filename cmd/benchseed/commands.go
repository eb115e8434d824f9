package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petrijr/benchseed/internal/seed"
	"github.com/petrijr/benchseed/internal/site"
	"github.com/petrijr/benchseed/pkg/api"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Install the themes and plugins the scenarios need",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				for _, theme := range []string{site.DefaultTheme, site.StorefrontTheme} {
					if err := a.site.InstallTheme(ctx, theme); err != nil {
						return err
					}
				}
				for _, plugin := range []string{site.PluginCommerce, site.PluginCourseware} {
					if err := a.site.InstallPlugin(ctx, plugin); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "site initialised")
				return nil
			})
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the environment status label",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				status, err := a.dispatcher.Status(ctx)
				if err != nil {
					return err
				}
				if status == api.EnvUnset {
					status = "unset"
				}
				fmt.Fprintln(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
}

func newScenariosCmd() *cobra.Command {
	var req requestFlags
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List scenarios and the operations a request would run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := req.build(cmd.Flags())
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				for _, name := range a.dispatcher.Scenarios() {
					ops, err := a.dispatcher.Operations(name, cfg)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", name, ops)
				}
				return nil
			})
		},
	}
	req.register(cmd.Flags())
	return cmd
}

func newStepCmd() *cobra.Command {
	var req requestFlags
	cmd := &cobra.Command{
		Use:   "step <scenario>",
		Short: "Issue exactly one call and print the continuation",
		Long: `step issues one dispatcher call, like a single REST request, and prints
the continuation as JSON. Pass the printed next_op and op_args back with
--op and --op-args to issue the following call.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := req.build(cmd.Flags())
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				cont, err := a.dispatcher.Dispatch(ctx, args[0], cfg)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), cont)
			})
		},
	}
	req.register(cmd.Flags())
	req.registerStep(cmd.Flags())
	return cmd
}

func newRunCmd() *cobra.Command {
	var req requestFlags
	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario to completion, persisting progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := req.build(cmd.Flags())
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				report, err := a.driver.RunScenario(ctx, args[0], cfg)
				if err != nil {
					if report != nil {
						return fmt.Errorf("run %s stopped: %w", report.RunID, err)
					}
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	req.register(cmd.Flags())
	return cmd
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Run the teardown scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				report, err := a.driver.RunScenario(ctx, seed.ScenarioClean, api.Config{})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func newPendingCmd() *cobra.Command {
	var scenario string
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List runs that have not completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				runs, err := a.driver.Pending(ctx, scenario)
				if err != nil {
					return err
				}
				for _, c := range runs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
						c.RunID, c.Scenario, c.Request.Op, c.Request.OpArgs)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&scenario, "scenario", "", "only list runs of this scenario")
	return cmd
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume [run-id...]",
		Short: "Continue stored runs from their last checkpoint",
		Long:  "resume drives the given runs, or every pending run when none are named.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ids := args
				if len(ids) == 0 {
					runs, err := a.driver.Pending(ctx, "")
					if err != nil {
						return err
					}
					for _, c := range runs {
						ids = append(ids, c.RunID)
					}
				}

				for _, id := range ids {
					report, err := a.driver.Run(ctx, id)
					if err != nil {
						return fmt.Errorf("run %s: %w", id, err)
					}
					if err := printJSON(cmd.OutOrStdout(), report); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
