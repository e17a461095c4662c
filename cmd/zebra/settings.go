package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"zebracli/internal/app"
	"zebracli/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Show or change settings"}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSetCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig()
			if err != nil {
				return err
			}
			shown := *cfg
			if shown.Zebra.Token != "" {
				shown.Zebra.Token = "********"
			}
			if viper.GetBool("json") {
				return printJSON(shown)
			}
			fmt.Printf("# %s\n", configPath())
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(shown)
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting in the config file",
		Long:  "Known keys: zebra.url, zebra.token, zebra.user_id, timezone, storage.driver, storage.dir and aliases.<name> (an empty value removes the alias).",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Printf("Set %s in %s\n", args[0], path)
			return nil
		},
	}
}

func logCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, c *app.Context) error {
				list, err := c.Events.Latest(ctx, n)
				if err != nil {
					return err
				}
				return printJSONOrTable(list, func() {
					tw := newTable()
					tw.AppendHeader(table.Row{"#", "Time", "Type", "Entity"})
					for _, e := range list {
						tw.AppendRow(table.Row{strconv.FormatInt(e.ID, 10), e.TS, e.Type, e.EntityKind + " " + e.EntityID})
					}
					tw.Render()
				})
			})
		},
	}
	cmd.Flags().IntVarP(&n, "lines", "n", 20, "number of entries")
	return cmd
}
