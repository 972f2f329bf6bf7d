package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/baiirun/focusflow/internal/export"
	"github.com/baiirun/focusflow/internal/scheduler"
	"github.com/baiirun/focusflow/internal/tui"
	"github.com/baiirun/focusflow/internal/web"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API and the scheduled-task promoter",
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (overrides listen)")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := a.cfg.Listen
		if listen != "" {
			addr = listen
		}

		promoter := scheduler.NewPromoter(a.repo, a.cfg.PromoteInterval)
		go promoter.Run(ctx)

		log.Printf("serving %s's tasks on the %s plan", a.cfg.Owner, a.gate.Plan().Name)
		return web.NewServer(a.repo, a.wizard, a.gate).Run(ctx, addr)
	})
	return cmd
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse lists and process the inbox interactively",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			if _, err := a.repo.PromoteScheduled(cmd.Context()); err != nil {
				return err
			}
			return tui.Run(a.repo, a.wizard)
		}),
	}
}

func newPromoteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "promote",
		Short: "Move tasks scheduled for today into next actions",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			n, err := a.repo.PromoteScheduled(cmd.Context())
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), map[string]int{"promoted": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Promoted %d tasks\n", n)
			return nil
		}),
	}
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Count tasks per list and show recent completions",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			s, err := a.repo.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), s)
			}
			renderSummary(cmd.OutOrStdout(), s)
			return nil
		}),
	}
}

func newUsageCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show this month's creations against the plan limits",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			report, err := a.gate.Report(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load usage: %w", err)
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), report)
			}

			t := newTable(cmd.OutOrStdout())
			t.SetTitle("%s plan, %s", report.Plan.Name, report.Usage.Month)
			t.AppendRow(table.Row{"Tasks", limitText(report.Usage.Tasks, report.Plan.MaxTasksPerMonth)})
			t.AppendRow(table.Row{"Projects", limitText(report.Usage.Projects, report.Plan.MaxProjectsPerMonth)})
			t.AppendRow(table.Row{"Advanced search", report.Plan.HasAdvancedSearch})
			t.AppendRow(table.Row{"Data export", report.Plan.HasDataExport})
			t.Render()
			return nil
		}),
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task and project as YAML",
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
		snapshot, err := export.Build(cmd.Context(), a.repo, a.gate.Plan())
		if err != nil {
			return err
		}
		if output == "" {
			return export.Write(cmd.OutOrStdout(), snapshot)
		}
		if err := export.WriteFile(output, snapshot); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks and %d projects to %s\n",
			len(snapshot.Tasks), len(snapshot.Projects), output)
		return nil
	})
	return cmd
}
