package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/dupmail/internal/app"
	"github.com/nhle/dupmail/internal/logger"
	"github.com/nhle/dupmail/internal/model"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "dupmail [PATH]",
	Short: "Find duplicate messages in a mail folder",
	Long: `dupmail fingerprints every message of a Maildir folder, mbox file or
IMAP mailbox from a chosen set of header and body fields, and prints the
groups of messages that share a fingerprint.

Nothing is ever modified or deleted.

Examples:
  # Scan a maildir with the default fields
  dupmail ~/Maildir/INBOX

  # Compare only sender, subject and body, print JSON
  dupmail -k from,subject,body_hash -o json archive.mbox

  # Scan the configured IMAP mailbox and keep the run
  dupmail --source imap --save`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runScan,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	addScanFlags(rootCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// loadApp reads the config file and environment, applies --log-level
// and builds the App.
func loadApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}

	a := app.New(cfg, configPath, logger.New(cfg.Log.Level))
	a.Stdout = cmd.OutOrStdout()
	a.Stderr = cmd.ErrOrStderr()
	return a, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
