package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"zebracli/internal/app"
	"zebracli/internal/domain"
	"zebracli/internal/engine"
)

type roleFlags struct {
	individual bool
	roleID     int
}

func (rf *roleFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&rf.individual, "individual", false, "book as an individual action instead of a role")
	cmd.Flags().IntVar(&rf.roleID, "role", 0, "zebra role id")
}

// resolve returns the role for a new frame on a, or nil to fall back to the
// user's default role.
func (rf roleFlags) resolve(ctx context.Context, c *app.Context, a domain.Activity) (*domain.Role, error) {
	if rf.individual {
		if rf.roleID != 0 {
			return nil, fmt.Errorf("--role and --individual are mutually exclusive")
		}
		return nil, nil
	}
	return c.ResolveRole(ctx, a, rf.roleID)
}

func startCmd() *cobra.Command {
	var (
		desc  string
		at    string
		noGap bool
		roles roleFlags
	)
	cmd := &cobra.Command{
		Use:   "start [activity]",
		Short: "Start a frame",
		Long: `Start tracking time on an activity. The activity is an alias, "project/activity"
names or an activity id; without one, the activity last used for the same issue
keys as the description is picked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				var (
					a   domain.Activity
					err error
				)
				if len(args) == 1 {
					a, err = c.Projects.FindActivity(ctx, args[0])
				} else {
					a, err = c.GuessActivity(ctx, desc)
				}
				if err != nil {
					return err
				}
				role, err := roles.resolve(ctx, c, a)
				if err != nil {
					return err
				}
				opts := engine.StartOptions{Description: desc, NoGap: noGap, IsIndividual: roles.individual, Role: role}
				if at != "" {
					t, err := parseTime(at, c.Now(), c.Location)
					if err != nil {
						return err
					}
					opts.StartTime = &t
				}
				f, err := c.Track.Start(ctx, a, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(newFrameView(f, c.Now(), nil), func() {
					fmt.Printf("Started %s at %s\n", styled(activityStyle, activityLabel(f.Activity)),
						styled(timeStyle, f.StartTime.In(c.Location).Format(clockLayout)))
				})
			})
		},
	}
	cmd.Flags().StringVarP(&desc, "description", "d", "", "description, may mention issue keys")
	cmd.Flags().StringVar(&at, "at", "", "start time (default now)")
	cmd.Flags().BoolVar(&noGap, "no-gap", false, "start where the previous frame stopped")
	roles.register(cmd)
	return cmd
}

func stopCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the current frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				var stop *time.Time
				if at != "" {
					t, err := parseTime(at, c.Now(), c.Location)
					if err != nil {
						return err
					}
					stop = &t
				}
				f, err := c.Track.Stop(ctx, stop)
				if err != nil {
					return err
				}
				return printJSONOrTable(newFrameView(f, c.Now(), nil), func() {
					fmt.Printf("Stopped %s, tracked %s\n", styled(activityStyle, activityLabel(f.Activity)),
						styled(timeStyle, formatDuration(f.Duration(c.Now()))))
				})
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "stop time (default now)")
	return cmd
}

func addCmd() *cobra.Command {
	var (
		desc, from, to string
		roles          roleFlags
	)
	cmd := &cobra.Command{
		Use:   "add <activity>",
		Short: "Add a completed frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				a, err := c.Projects.FindActivity(ctx, args[0])
				if err != nil {
					return err
				}
				start, err := parseTime(from, c.Now(), c.Location)
				if err != nil {
					return err
				}
				stop, err := parseTime(to, c.Now(), c.Location)
				if err != nil {
					return err
				}
				role, err := roles.resolve(ctx, c, a)
				if err != nil {
					return err
				}
				f, err := c.Track.Add(ctx, a, start, stop, engine.AddOptions{Description: desc, IsIndividual: roles.individual, Role: role})
				if err != nil {
					return err
				}
				return printJSONOrTable(newFrameView(f, c.Now(), nil), func() {
					fmt.Printf("Added %s on %s (%s)\n", styled(timeStyle, formatDuration(f.Duration(c.Now()))),
						styled(activityStyle, activityLabel(f.Activity)), f.UUID.Hex())
				})
			})
		},
	}
	cmd.Flags().StringVarP(&desc, "description", "d", "", "description")
	cmd.Flags().StringVar(&from, "from", "", "start time")
	cmd.Flags().StringVar(&to, "to", "", "stop time")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	roles.register(cmd)
	return cmd
}

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Discard the current frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				f, err := c.Track.Cancel(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(newFrameView(f, c.Now(), nil), func() {
					fmt.Printf("Cancelled %s started at %s\n", activityLabel(f.Activity), f.StartTime.In(c.Location).Format(clockLayout))
				})
			})
		},
	}
}

type statusView struct {
	Running bool       `json:"running"`
	Frame   *frameView `json:"frame,omitempty"`
	Elapsed int64      `json:"elapsed_seconds"`
	Today   int64      `json:"today_seconds"`
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				st, err := c.Status(ctx)
				if err != nil {
					return err
				}
				view := statusView{Running: st.Frame != nil, Elapsed: int64(st.Elapsed / time.Second), Today: int64(st.Today / time.Second)}
				if st.Frame != nil {
					fv := newFrameView(*st.Frame, c.Now(), nil)
					view.Frame = &fv
				}
				return printJSONOrTable(view, func() {
					if st.Frame == nil {
						fmt.Println("No frame started")
					} else {
						f := st.Frame
						line := fmt.Sprintf("Working on %s since %s (%s)", styled(activityStyle, activityLabel(f.Activity)),
							styled(timeStyle, f.StartTime.In(c.Location).Format(clockLayout)), formatDuration(st.Elapsed))
						if f.Description != "" {
							line += " " + styled(dimStyle, truncateDescription(f.Description))
						}
						fmt.Println(line)
					}
					fmt.Printf("Today: %s\n", formatDuration(st.Today))
				})
			})
		},
	}
}
