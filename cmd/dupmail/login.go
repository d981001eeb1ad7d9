package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an IMAP password in the system keyring",
	Long: `Store an IMAP password in the system keyring and remember the server
settings in the config file.

On a terminal the settings are asked for interactively. Otherwise the
password is read from the first line of standard input:

  echo "$PASSWORD" | dupmail login --host imap.example.com --user me`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	f := loginCmd.Flags()
	f.String("host", "", "IMAP server host")
	f.String("port", "", "IMAP server port (default 993, or 143 with --tls=false)")
	f.String("user", "", "IMAP username")
	f.String("mailbox", "", "mailbox to scan")
	f.Bool("tls", true, "use implicit TLS instead of STARTTLS")

	f = logoutCmd.Flags()
	f.String("host", "", "IMAP server host (default from config)")
	f.String("user", "", "IMAP username (default from config)")
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored IMAP password from the system keyring",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func runLogout(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Log.Sync()

	imap := &a.Config.Source.IMAP
	if cmd.Flags().Changed("host") {
		imap.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("user") {
		imap.Username, _ = cmd.Flags().GetString("user")
	}

	if err := a.Logout(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Password for %s@%s removed.\n", imap.Username, imap.Host)
	return nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Log.Sync()

	imap := a.Config.Source.IMAP
	f := cmd.Flags()
	if f.Changed("host") {
		imap.Host, _ = f.GetString("host")
	}
	if f.Changed("port") {
		imap.Port, _ = f.GetString("port")
	}
	if f.Changed("user") {
		imap.Username, _ = f.GetString("user")
	}
	if f.Changed("mailbox") {
		imap.Mailbox, _ = f.GetString("mailbox")
	}
	if f.Changed("tls") {
		imap.TLS, _ = f.GetBool("tls")
	}

	var password string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("IMAP Host").
					Placeholder("imap.example.com").
					Value(&imap.Host).
					Validate(validateRequired("IMAP Host")),
				huh.NewInput().
					Title("Username").
					Value(&imap.Username).
					Validate(validateRequired("Username")),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&password).
					Validate(validateRequired("Password")),
				huh.NewInput().
					Title("Mailbox").
					Placeholder("INBOX").
					Value(&imap.Mailbox),
				huh.NewConfirm().
					Title("Use TLS?").
					Value(&imap.TLS),
			),
		)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return fmt.Errorf("login cancelled")
			}
			return err
		}
	} else {
		password, err = readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	if err := a.Login(imap, password); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Password for %s@%s stored.\n", imap.Username, imap.Host)
	return nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
