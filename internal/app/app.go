// Package app wires configuration, sources, the scanner, reporting and
// run history together for the command line.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nhle/dupmail/internal/credential"
	"github.com/nhle/dupmail/internal/dedup"
	"github.com/nhle/dupmail/internal/fingerprint"
	"github.com/nhle/dupmail/internal/logger"
	"github.com/nhle/dupmail/internal/model"
	"github.com/nhle/dupmail/internal/report"
	"github.com/nhle/dupmail/internal/scan"
	"github.com/nhle/dupmail/internal/source"
	"github.com/nhle/dupmail/internal/store"
)

// Credentials is the part of the keyring the app needs.
type Credentials interface {
	Lookup(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// App holds everything a command needs.
type App struct {
	Config     *model.AppConfig
	ConfigPath string
	Log        logger.Logger
	Stdout     io.Writer
	Stderr     io.Writer
	Keyring    Credentials

	// NewProgress creates the progress display for a scan.
	NewProgress func(label string) report.Progress
}

// New creates an App writing to the process's standard streams.
func New(cfg *model.AppConfig, configPath string, log logger.Logger) *App {
	return &App{
		Config:     cfg,
		ConfigPath: configPath,
		Log:        log,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Keyring:    credential.Default(),
		NewProgress: func(label string) report.Progress {
			return report.NewProgress(os.Stderr, label)
		},
	}
}

// Scan runs one duplicate search with the current configuration, writes
// the groups to Stdout and, when enabled, saves the run.
func (a *App) Scan(ctx context.Context) (*dedup.Result, error) {
	if err := a.Config.Validate(); err != nil {
		return nil, err
	}
	scanCfg := a.Config.Scan

	fields, err := fingerprint.ParseFields(scanCfg.Fields)
	if err != nil {
		return nil, &model.ConfigError{Key: "scan.fields", Message: err.Error()}
	}
	format, err := model.ParseFormat(string(scanCfg.Format))
	if err != nil {
		return nil, &model.ConfigError{Key: "scan.format", Message: err.Error()}
	}

	src, err := a.openSource()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	progress := a.progress(src)
	scanner, err := scan.New(src, scan.Options{
		Fields:        fields,
		SkipThreshold: scanCfg.SkipThreshold,
		Workers:       scanCfg.Workers,
		Logger:        a.Log,
		Progress:      progress.Update,
	})
	if err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	progress.Start()
	res, err := scanner.Run(ctx)
	progress.Stop()
	if err != nil {
		return nil, err
	}
	finished := time.Now().UTC()

	w := report.NewWriter(a.Stdout, a.Stderr, format)
	if err := w.WriteGroups(res.IDs(), res.Count()); err != nil {
		return nil, err
	}

	if a.Config.Store.Enabled {
		run := newRun(src, fields, scanCfg.SkipThreshold, res, started, finished)
		if err := a.saveRun(ctx, run); err != nil {
			return nil, err
		}
		a.Log.Infow("run saved", "id", run.ID, "path", a.Config.Store.Path)
	}

	return res, nil
}

func (a *App) progress(src source.Source) report.Progress {
	if a.NewProgress == nil {
		return report.Nop{}
	}
	return a.NewProgress("scanning " + src.Name())
}

// newRun converts a grouping result into a run record.
func newRun(
	src source.Source,
	fields []fingerprint.Field,
	threshold int,
	res *dedup.Result,
	started, finished time.Time,
) *model.Run {
	run := &model.Run{
		SourceType:    string(src.Type()),
		SourceName:    src.Name(),
		Fields:        strings.Join(fingerprint.Names(fields), ","),
		SkipThreshold: threshold,
		Scanned:       res.Scanned,
		Skipped:       len(res.Skipped),
		Duplicates:    res.Count(),
		StartedAt:     started,
		FinishedAt:    finished,
	}
	for _, g := range res.Groups {
		run.Groups = append(run.Groups, model.RunGroup{
			Fingerprint: g.Fingerprint.String(),
			MessageIDs:  append([]string(nil), g.IDs...),
		})
	}
	for _, sk := range res.Skipped {
		run.Skips = append(run.Skips, model.RunSkip{
			MessageID: sk.ID,
			Failures:  sk.Failures,
		})
	}
	return run
}

func (a *App) openStore() (*store.SQLiteStore, error) {
	path := a.Config.Store.Path
	if path == "" {
		path = model.DefaultStorePath()
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening run history %s: %w", path, err)
	}
	return s, nil
}

func (a *App) saveRun(ctx context.Context, run *model.Run) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveRun(ctx, run)
}

// ListRuns writes up to limit saved runs, newest first.
func (a *App) ListRuns(ctx context.Context, limit int, format model.Format) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.GetRuns(ctx, store.RunFilter{Limit: limit})
	if err != nil {
		return err
	}
	return report.WriteRuns(a.Stdout, runs, format)
}

// ShowRun writes the groups of a saved run in format.
func (a *App) ShowRun(ctx context.Context, id string, format model.Format) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}
	a.Log.Debugw("showing run", "id", run.ID, "source", run.SourceName)

	for _, g := range run.Groups {
		if _, err := fingerprint.ParseFingerprint(g.Fingerprint); err != nil {
			return fmt.Errorf("run %s group %d: %w", run.ID, g.Position, err)
		}
	}

	return report.NewWriter(a.Stdout, a.Stderr, format).
		WriteGroups(run.GroupIDs(), run.Duplicates)
}

// Login stores the IMAP password in the keyring and records the server
// settings in the config file.
func (a *App) Login(imap model.IMAPConfig, password string) error {
	if imap.Host == "" || imap.Username == "" {
		return &model.ConfigError{Key: "source.imap", Message: "host and username are required"}
	}
	if password == "" {
		return fmt.Errorf("empty password")
	}

	key := credential.IMAPKey(imap.Username, imap.Host)
	if err := a.Keyring.Set(key, password); err != nil {
		return err
	}

	imap.Password = ""
	a.Config.Source.IMAP = imap
	if a.ConfigPath != "" {
		if err := model.SaveConfig(a.ConfigPath, a.Config); err != nil {
			return err
		}
	}
	a.Log.Infow("stored IMAP password", "key", key)
	return nil
}

// Logout removes the stored IMAP password for the configured server.
func (a *App) Logout() error {
	imap := a.Config.Source.IMAP
	if imap.Host == "" || imap.Username == "" {
		return &model.ConfigError{Key: "source.imap", Message: "host and username are required"}
	}

	key := credential.IMAPKey(imap.Username, imap.Host)
	if _, ok, err := a.Keyring.Lookup(key); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("no stored password for %s@%s", imap.Username, imap.Host)
	}
	if err := a.Keyring.Delete(key); err != nil {
		return err
	}
	a.Log.Infow("removed IMAP password", "key", key)
	return nil
}
