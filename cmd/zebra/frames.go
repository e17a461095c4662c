package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"zebracli/internal/app"
	"zebracli/internal/domain"
	"zebracli/internal/engine"
	"zebracli/internal/events"
	"zebracli/internal/repo"
)

type frameFilterFlags struct {
	from, to       string
	projects       []string
	ignoreProjects []string
	issues         []string
	ignoreIssues   []string
	partial        bool
}

func (ff *frameFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ff.from, "from", "", "first day (default today)")
	cmd.Flags().StringVar(&ff.to, "to", "", "last day (default --from)")
	cmd.Flags().StringSliceVar(&ff.projects, "project", nil, "only these projects (name or id)")
	cmd.Flags().StringSliceVar(&ff.ignoreProjects, "ignore-project", nil, "skip these projects (name or id)")
	cmd.Flags().StringSliceVar(&ff.issues, "issue", nil, "only frames mentioning these issue keys")
	cmd.Flags().StringSliceVar(&ff.ignoreIssues, "ignore-issue", nil, "skip frames mentioning these issue keys")
	cmd.Flags().BoolVar(&ff.partial, "partial", false, "include frames overlapping the range edges")
}

func (ff frameFilterFlags) build(ctx context.Context, c *app.Context) (repo.FrameFilter, error) {
	days, err := parseDayRange(ff.from, ff.to, c.Now(), c.Location)
	if err != nil {
		return repo.FrameFilter{}, err
	}
	from, to := days.From, days.End()
	filter := repo.FrameFilter{
		IssueKeys:            ff.issues,
		IgnoreIssueKeys:      ff.ignoreIssues,
		From:                 &from,
		To:                   &to,
		IncludePartialFrames: ff.partial,
	}
	if filter.ProjectKeys, err = resolveProjectKeys(ctx, c, ff.projects); err != nil {
		return filter, err
	}
	if filter.IgnoreProjectKeys, err = resolveProjectKeys(ctx, c, ff.ignoreProjects); err != nil {
		return filter, err
	}
	return filter, nil
}

func resolveProjectKeys(ctx context.Context, c *app.Context, refs []string) ([]domain.EntityKey, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	all, err := c.Projects.All(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]domain.EntityKey, 0, len(refs))
	for _, ref := range refs {
		found := false
		for _, p := range all {
			if p.Key.String() == ref || strings.EqualFold(p.Name, ref) {
				keys = append(keys, p.Key)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: project %q", repo.ErrNotFound, ref)
		}
	}
	return keys, nil
}

func projectNames(ctx context.Context, c *app.Context) (map[domain.EntityKey]string, error) {
	all, err := c.Projects.All(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[domain.EntityKey]string, len(all))
	for _, p := range all {
		names[p.Key] = p.Name
	}
	return names, nil
}

func framesCmd() *cobra.Command {
	var flags frameFilterFlags
	cmd := &cobra.Command{
		Use:   "frames",
		Short: "List completed frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				filter, err := flags.build(ctx, c)
				if err != nil {
					return err
				}
				frames, err := c.Frames.Filter(ctx, filter)
				if err != nil {
					return err
				}
				names, err := projectNames(ctx, c)
				if err != nil {
					return err
				}
				views := make([]frameView, 0, len(frames))
				for _, f := range frames {
					views = append(views, newFrameView(f, c.Now(), names))
				}
				return printJSONOrTable(views, func() { renderFrames(views, c.Location) })
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func frameCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "frame", Short: "Edit or remove a frame"}
	cmd.AddCommand(frameEditCmd())
	cmd.AddCommand(frameRemoveCmd())
	return cmd
}

func frameEditCmd() *cobra.Command {
	var desc, start, stop string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a frame's description or times",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseIdentifier(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				f, err := c.Frames.Get(ctx, id)
				if err != nil {
					return err
				}
				now := c.Now()
				payload := events.EventPayload{}
				if cmd.Flags().Changed("description") {
					if f, err = f.WithDescription(desc, now); err != nil {
						return err
					}
					payload["description"] = desc
				}
				if start != "" || stop != "" {
					newStart, newStop := f.StartTime, f.StopTime
					if start != "" {
						if newStart, err = parseTime(start, now, c.Location); err != nil {
							return err
						}
						payload["start"] = newStart.UTC().Format(time.RFC3339)
					}
					if stop != "" {
						if f.IsActive() {
							return fmt.Errorf("frame %s is running, use zebra stop --at", id)
						}
						t, err := parseTime(stop, now, c.Location)
						if err != nil {
							return err
						}
						newStop = &t
						payload["stop"] = t.UTC().Format(time.RFC3339)
					}
					if f, err = f.WithTimes(newStart, newStop, now); err != nil {
						return err
					}
				}
				if len(payload) == 0 {
					return fmt.Errorf("nothing to change, use --description, --start or --stop")
				}
				if err := c.Frames.Update(ctx, f); err != nil {
					return err
				}
				if err := c.Events.Append(ctx, "frame.edit", "frame", f.UUID.Hex(), payload); err != nil {
					c.Logger.Printf("record frame.edit: %v", err)
				}
				return printJSONOrTable(newFrameView(f, now, nil), func() {
					fmt.Printf("Updated frame %s\n", f.UUID.Hex())
				})
			})
		},
	}
	cmd.Flags().StringVarP(&desc, "description", "d", "", "new description")
	cmd.Flags().StringVar(&start, "start", "", "new start time")
	cmd.Flags().StringVar(&stop, "stop", "", "new stop time")
	return cmd
}

func frameRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseIdentifier(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				if err := c.Frames.Remove(ctx, id); err != nil {
					return err
				}
				if err := c.Events.Append(ctx, "frame.remove", "frame", id.Hex(), nil); err != nil {
					c.Logger.Printf("record frame.remove: %v", err)
				}
				fmt.Printf("Removed frame %s\n", id.Hex())
				return nil
			})
		},
	}
}

type reportRow struct {
	Key      string `json:"key"`
	Activity string `json:"activity,omitempty"`
	Seconds  int64  `json:"seconds"`
}

func reportCmd() *cobra.Command {
	var (
		flags frameFilterFlags
		by    string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Sum tracked time by project, issue key or day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				filter, err := flags.build(ctx, c)
				if err != nil {
					return err
				}
				frames, err := c.Frames.Filter(ctx, filter)
				if err != nil {
					return err
				}
				rows := []reportRow{}
				switch by {
				case "project":
					names, err := projectNames(ctx, c)
					if err != nil {
						return err
					}
					for _, p := range engine.ByProject(frames) {
						name := names[p.ProjectKey]
						if name == "" {
							name = p.ProjectKey.String()
						}
						rows = append(rows, reportRow{Key: name, Seconds: p.Seconds})
						for _, a := range p.Activities {
							rows = append(rows, reportRow{Key: name, Activity: a.Activity.Name, Seconds: a.Seconds})
						}
					}
				case "issue":
					totals := engine.ByIssueKey(frames)
					for _, k := range engine.SortedKeys(totals) {
						label := k
						if label == "" {
							label = "(no issue)"
						}
						rows = append(rows, reportRow{Key: label, Seconds: totals[k]})
					}
				case "day":
					totals := engine.ByDay(frames, c.Location)
					for _, k := range engine.SortedKeys(totals) {
						rows = append(rows, reportRow{Key: k, Seconds: totals[k]})
					}
				default:
					return fmt.Errorf("--by must be project, issue or day")
				}
				return printJSONOrTable(rows, func() {
					tw := newTable()
					tw.AppendHeader(table.Row{strings.ToUpper(by[:1]) + by[1:], "Activity", "Time"})
					var total int64
					for _, r := range rows {
						tw.AppendRow(table.Row{r.Key, r.Activity, formatDuration(time.Duration(r.Seconds) * time.Second)})
						if r.Activity == "" {
							total += r.Seconds
						}
					}
					tw.AppendFooter(table.Row{"Total", "", formatDuration(time.Duration(total) * time.Second)})
					tw.Render()
				})
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&by, "by", "project", "group by project, issue or day")
	return cmd
}
