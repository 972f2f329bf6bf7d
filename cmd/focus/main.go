package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baiirun/focusflow/internal/config"
	"github.com/baiirun/focusflow/internal/db"
	"github.com/baiirun/focusflow/internal/quota"
	"github.com/baiirun/focusflow/internal/repo"
	"github.com/baiirun/focusflow/internal/triage"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	dbPath     string
	json       bool
}

// app is everything a command needs once configuration is resolved.
type app struct {
	cfg    *config.Config
	db     *db.DB
	gate   *quota.Gate
	repo   *repo.Repository
	wizard *triage.Wizard
}

func (a *app) Close() error {
	return a.db.Close()
}

func openApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	plan, err := quota.PlanByName(cfg.Plan)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := database.Init(); err != nil {
		_ = database.Close()
		return nil, err
	}

	gate := quota.NewGate(database, cfg.Owner, plan)
	r := repo.New(database, gate, cfg.Owner)
	return &app{
		cfg:    cfg,
		db:     database,
		gate:   gate,
		repo:   r,
		wizard: triage.NewWizard(r),
	}, nil
}

// withApp wraps a command body so it runs against an opened app.
func withApp(opts *rootOptions, fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(opts)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		return fn(cmd, args, a)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "focus",
		Short: "Getting Things Done task manager",
		Long: `Capture everything into the inbox, process it one step at a time, and work
from next actions, waiting-for, scheduled and someday lists.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.focusflow/config.yaml)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path (overrides db_path)")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newSearchCmd(opts),
		newShowCmd(opts),
		newEditCmd(opts),
		newMoveCmd(opts),
		newRestoreCmd(opts),
		newRmCmd(opts),
		newTrashCmd(opts),
		newConvertCmd(opts),
		newProjectCmd(opts),
		newProcessCmd(opts),
		newPromoteCmd(opts),
		newSummaryCmd(opts),
		newUsageCmd(opts),
		newExportCmd(opts),
		newTUICmd(opts),
		newServeCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
