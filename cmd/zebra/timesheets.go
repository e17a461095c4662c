package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"zebracli/internal/app"
	"zebracli/internal/domain"
)

type dayRangeFlags struct {
	from, to string
}

func (f *dayRangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "first day (default today)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day (default --from)")
}

func (f dayRangeFlags) parse(c *app.Context) (dayRange, error) {
	return parseDayRange(f.from, f.to, c.Now(), c.Location)
}

func timesheetCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "timesheet", Aliases: []string{"ts"}, Short: "Build and sync timesheets"}
	cmd.AddCommand(timesheetCreateCmd())
	cmd.AddCommand(timesheetListCmd())
	cmd.AddCommand(timesheetPushCmd())
	cmd.AddCommand(timesheetPullCmd())
	cmd.AddCommand(timesheetRemoveCmd())
	return cmd
}

func timesheetCreateCmd() *cobra.Command {
	var (
		days   dayRangeFlags
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Group completed frames into local timesheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				r, err := days.parse(c)
				if err != nil {
					return err
				}
				build := c.Builder.FromFrames
				if dryRun {
					build = c.Builder.Build
				}
				created, err := build(ctx, r.From, r.End())
				if err != nil {
					return err
				}
				views := timesheetViews(created)
				return printJSONOrTable(views, func() {
					if len(views) == 0 {
						fmt.Println("No new timesheets")
						return
					}
					renderTimesheets(views)
				})
			})
		},
	}
	days.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the timesheets without saving them")
	return cmd
}

func timesheetListCmd() *cobra.Command {
	var days dayRangeFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local timesheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				r, err := days.parse(c)
				if err != nil {
					return err
				}
				list, err := c.Timesheets.GetByDateRange(ctx, &r.From, &r.To)
				if err != nil {
					return err
				}
				views := timesheetViews(list)
				return printJSONOrTable(views, func() { renderTimesheets(views) })
			})
		},
	}
	days.register(cmd)
	return cmd
}

func timesheetPushCmd() *cobra.Command {
	var (
		days dayRangeFlags
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Send new and locally changed timesheets to Zebra",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				r, err := days.parse(c)
				if err != nil {
					return err
				}
				pushed, err := c.Sync.PushRange(ctx, r.From, r.To, newConfirmer(yes))
				views := timesheetViews(pushed)
				if err != nil {
					if len(views) > 0 && !jsonOutput() {
						renderTimesheets(views)
					}
					return err
				}
				return printJSONOrTable(views, func() {
					fmt.Printf("Pushed %d timesheets\n", len(views))
					if len(views) > 0 {
						renderTimesheets(views)
					}
				})
			})
		},
	}
	days.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "overwrite existing Zebra timesheets without asking")
	return cmd
}

func timesheetPullCmd() *cobra.Command {
	var days dayRangeFlags
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Fetch timesheets from Zebra; newer remote changes win",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				r, err := days.parse(c)
				if err != nil {
					return err
				}
				changed, err := c.Sync.PullFromZebra(ctx, r.From, &r.To)
				if err != nil {
					return err
				}
				views := timesheetViews(changed)
				return printJSONOrTable(views, func() {
					fmt.Printf("Pulled %d timesheets\n", len(views))
					if len(views) > 0 {
						renderTimesheets(views)
					}
				})
			})
		},
	}
	days.register(cmd)
	return cmd
}

func timesheetRemoveCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a timesheet locally and in Zebra",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseIdentifier(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				ts, err := c.Timesheets.Get(ctx, id)
				if err != nil {
					return err
				}
				removed, err := c.Sync.Delete(ctx, ts, newConfirmer(yes))
				if err != nil {
					return err
				}
				if !removed {
					fmt.Println("Kept timesheet", id.Hex())
					return nil
				}
				fmt.Println("Removed timesheet", id.Hex())
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask before deleting in Zebra")
	return cmd
}
