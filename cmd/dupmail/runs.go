package main

import (
	"github.com/spf13/cobra"

	"github.com/nhle/dupmail/internal/app"
	"github.com/nhle/dupmail/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect saved scan runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, format, err := loadRunsApp(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		return a.ListRuns(cmd.Context(), limit, format)
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print the duplicate groups of a saved run",
	Long: `Print the duplicate groups of a saved run. ID may be any unique prefix
of the run id shown by 'dupmail runs list'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, format, err := loadRunsApp(cmd)
		if err != nil {
			return err
		}
		return a.ShowRun(cmd.Context(), args[0], format)
	},
}

func init() {
	for _, c := range []*cobra.Command{runsListCmd, runsShowCmd} {
		c.Flags().StringP("format", "o", string(model.FormatPlain), "output format: plain, json or yaml")
		c.Flags().String("db", "", "history database path")
	}
	runsListCmd.Flags().IntP("limit", "n", 20, "maximum number of runs (0 = all)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}

func loadRunsApp(cmd *cobra.Command) (*app.App, model.Format, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, "", err
	}
	if cmd.Flags().Changed("db") {
		a.Config.Store.Path, _ = cmd.Flags().GetString("db")
	}

	name, _ := cmd.Flags().GetString("format")
	format, err := model.ParseFormat(name)
	if err != nil {
		return nil, "", &model.ConfigError{Key: "format", Message: err.Error()}
	}
	return a, format, nil
}
