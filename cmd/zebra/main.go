package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"zebracli/internal/app"
	"zebracli/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "zebra",
	Short: "Track work time and sync it to Zebra",
	Long: `zebra records what you work on as frames, turns them into timesheets and
pushes those to the Zebra time-tracking service.

Core concepts:
- Frame: one stretch of work on an activity. At most one frame runs at a time (zebra start / zebra stop).
- Activity: what the time is booked on. Zebra activities come from 'zebra project refresh'; local ones are created with 'zebra project create' and never leave this machine.
- Role: the hat you wear while working. Without --role, the role last used on the activity or your default role ('zebra user role') applies.
- Timesheet: frames of one day grouped per activity, role and description, rounded to quarter hours. Create them with 'zebra timesheet create', then 'zebra timesheet push'.
- Issue keys: ABC-123 style keys in descriptions; reports can split time across them and 'zebra start' without an activity reuses the last activity for the same keys.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	os.Exit(run())
}

func run() int {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func initConfig() {
	viper.SetEnvPrefix("ZEBRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("config", "", "config file (default $ZEBRA_CONFIG or ~/.config/zebra/config.yml)")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (overrides storage.dir)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log warnings to stderr")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(startCmd())
	rootCmd.AddCommand(stopCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(cancelCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(framesCmd())
	rootCmd.AddCommand(frameCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(timesheetCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
}

func configPath() string {
	if p := viper.GetString("config"); p != "" {
		return p
	}
	return config.DefaultPath()
}

// effectiveConfig is the config file with environment and flag overrides applied.
func effectiveConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("url"); v != "" {
		cfg.Zebra.URL = v
	}
	if v := viper.GetString("token"); v != "" {
		cfg.Zebra.Token = v
	}
	if v := viper.GetInt("user-id"); v != 0 {
		cfg.Zebra.UserID = v
	}
	if v := viper.GetString("timezone"); v != "" {
		cfg.Timezone = v
	}
	if v := viper.GetString("data-dir"); v != "" {
		cfg.Storage.Dir = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() *log.Logger {
	if !viper.GetBool("verbose") {
		return nil
	}
	return log.New(os.Stderr, "zebra: ", 0)
}

func withApp(ctx context.Context, fn func(context.Context, *app.Context) error) error {
	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}
	c, err := app.Open(ctx, cfg, newLogger())
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

// printJSONOrTable prints v as JSON with --json, otherwise calls render.
func printJSONOrTable(v any, render func()) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	render()
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func jsonOutput() bool {
	return viper.GetBool("json")
}
