package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"zebracli/internal/app"
	"zebracli/internal/domain"
)

type activityView struct {
	Project     string `json:"project"`
	ProjectKey  string `json:"project_key"`
	Activity    string `json:"activity"`
	ActivityKey string `json:"activity_key"`
	Source      string `json:"source"`
	Status      string `json:"status"`
	Aliases     string `json:"aliases,omitempty"`
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "Manage projects and activities"}
	cmd.AddCommand(projectListCmd())
	cmd.AddCommand(projectRefreshCmd())
	cmd.AddCommand(projectCreateCmd())
	return cmd
}

func projectListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities per project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				projects, err := c.Projects.All(ctx)
				if err != nil {
					return err
				}
				aliases := map[string][]string{}
				for _, name := range c.Config.AliasNames() {
					target := c.Config.Aliases[name]
					aliases[target] = append(aliases[target], name)
				}
				views := []activityView{}
				for _, p := range projects {
					if !all && !p.IsActive() {
						continue
					}
					for _, a := range p.Activities {
						var refs []string
						refs = append(refs, aliases[a.Key.String()]...)
						refs = append(refs, aliases[p.Name+"/"+a.Name]...)
						views = append(views, activityView{
							Project:     p.Name,
							ProjectKey:  p.Key.String(),
							Activity:    a.Name,
							ActivityKey: a.Key.String(),
							Source:      string(a.Key.Source()),
							Status:      string(p.Status),
							Aliases:     strings.Join(refs, ","),
						})
					}
				}
				return printJSONOrTable(views, func() {
					tw := newTable()
					tw.AppendHeader(table.Row{"Project", "Activity", "ID", "Source", "Aliases"})
					for _, v := range views {
						tw.AppendRow(table.Row{v.Project, v.Activity, v.ActivityKey, v.Source, v.Aliases})
					}
					tw.Render()
				})
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive projects")
	return cmd
}

func projectRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload projects from Zebra",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				projects, err := c.ZebraProjects.Refresh(ctx)
				if err != nil {
					return err
				}
				activities := 0
				for _, p := range projects {
					activities += len(p.Activities)
				}
				fmt.Printf("Fetched %d projects with %d activities\n", len(projects), activities)
				return nil
			})
		},
	}
}

func projectCreateCmd() *cobra.Command {
	var (
		desc       string
		activities []string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a local project",
		Long:  "Local projects are tracked like Zebra ones but never turned into timesheets.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				p, err := c.Projects.Local.Create(ctx, args[0], desc, activities)
				if err != nil {
					return err
				}
				return printJSONOrTable(p, func() {
					fmt.Printf("Created project %s (%s)\n", p.Name, p.Key)
					for _, a := range p.Activities {
						fmt.Printf("  %s/%s  %s\n", p.Name, a.Name, a.Key)
					}
				})
			})
		},
	}
	cmd.Flags().StringVarP(&desc, "description", "d", "", "description")
	cmd.Flags().StringSliceVarP(&activities, "activity", "a", nil, "activity name (repeatable)")
	_ = cmd.MarkFlagRequired("activity")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Show the Zebra user and pick a default role"}
	cmd.AddCommand(userRefreshCmd())
	cmd.AddCommand(userRoleCmd())
	return cmd
}

func userRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the user and their roles from Zebra",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				u, err := c.Users.Refresh(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(u, func() {
					fmt.Printf("%s (%d), %d roles\n", u.Name(), u.ID, len(u.Roles))
				})
			})
		},
	}
}

type roleView struct {
	domain.Role
	Default bool `json:"default"`
}

func userRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role [id]",
		Short: "List roles, or set the default role",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				if len(args) == 1 {
					id, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("role id must be an integer")
					}
					role, err := c.Users.SetDefaultRole(ctx, id)
					if err != nil {
						return err
					}
					fmt.Printf("Default role is now %s\n", styled(okStyle, role.Name))
					return nil
				}
				u, err := c.Users.Get(ctx)
				if err != nil {
					return err
				}
				if u == nil {
					return fmt.Errorf("no user stored, run zebra user refresh first")
				}
				def, err := c.Users.DefaultRole(ctx)
				if err != nil {
					return err
				}
				views := make([]roleView, 0, len(u.Roles))
				for _, r := range u.Roles {
					views = append(views, roleView{Role: r, Default: def != nil && def.ID == r.ID})
				}
				return printJSONOrTable(views, func() {
					tw := newTable()
					tw.AppendHeader(table.Row{"ID", "Name", "Full name", "Default"})
					for _, v := range views {
						mark := ""
						if v.Default {
							mark = "*"
						}
						tw.AppendRow(table.Row{v.ID, v.Name, v.FullName, mark})
					}
					tw.Render()
				})
			})
		},
	}
}
