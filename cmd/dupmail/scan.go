package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/dupmail/internal/dedup"
	"github.com/nhle/dupmail/internal/fingerprint"
	"github.com/nhle/dupmail/internal/model"
)

var scanCmd = &cobra.Command{
	Use:   "scan [PATH]",
	Short: "Scan a mail folder for duplicates (the default command)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func init() {
	addScanFlags(scanCmd)
}

func addScanFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("keys", "k", strings.Join(fingerprint.Names(fingerprint.DefaultFields), ","),
		"comma separated fields to compare (see 'dupmail fields')")
	f.IntP("fail-at", "f", dedup.DefaultSkipThreshold,
		"skip messages with at least this many unreadable fields")
	f.StringP("format", "o", string(model.FormatPlain), "output format: plain, json or yaml")
	f.IntP("workers", "w", 0, "fingerprinting workers (0 = one per CPU)")
	f.String("source", "auto", "source type: auto, maildir, mbox or imap")
	f.Bool("save", false, "save the run to the history database")
	f.String("db", "", "history database path")
}

// applyScanFlags overrides config values with flags given on the
// command line.
func applyScanFlags(cmd *cobra.Command, cfg *model.AppConfig, args []string) {
	f := cmd.Flags()

	if f.Changed("keys") {
		keys, _ := f.GetString("keys")
		cfg.Scan.Fields = strings.Split(keys, ",")
	}
	if f.Changed("fail-at") {
		cfg.Scan.SkipThreshold, _ = f.GetInt("fail-at")
	}
	if f.Changed("format") {
		format, _ := f.GetString("format")
		cfg.Scan.Format = model.Format(format)
	}
	if f.Changed("workers") {
		cfg.Scan.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("source") {
		cfg.Source.Type, _ = f.GetString("source")
	}
	if f.Changed("save") {
		cfg.Store.Enabled, _ = f.GetBool("save")
	}
	if f.Changed("db") {
		cfg.Store.Path, _ = f.GetString("db")
	}
	if len(args) > 0 {
		cfg.Source.Path = args[0]
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Log.Sync()

	applyScanFlags(cmd, a.Config, args)

	_, err = a.Scan(cmd.Context())
	return err
}
