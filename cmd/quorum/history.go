package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"quorum/internal/history"
	"quorum/internal/logging"
)

func newHistoryCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse archived board rounds",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived rounds, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, project, err := openStore(cmd, *cfgFile)
			if err != nil {
				return err
			}
			records, err := store.List(project)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No archived rounds.")
				return nil
			}

			t := table.NewWriter()
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "When", "Mode", "Verdict", "Project", "Request"})
			for _, rec := range records {
				request := rec.Request
				if len(request) > 60 {
					request = request[:57] + "..."
				}
				t.AppendRow(table.Row{
					rec.ID,
					rec.CreatedAt.Local().Format("2006-01-02 15:04"),
					rec.Report.RequestType,
					rec.Report.FinalVerdict,
					rec.ProjectID,
					request,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <round-id>",
		Short: "Replay one archived round's report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(cmd, *cfgFile)
			if err != nil {
				return err
			}
			rec, err := store.Get(args[0])
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			return render(cmd.OutOrStdout(), rec.Report, asJSON)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <round-id>",
		Short: "Delete one archived round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(cmd, *cfgFile)
			if err != nil {
				return err
			}
			return store.Delete(args[0])
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}

// openStore resolves configuration and opens the round archive. It returns
// the configured project filter alongside the store.
func openStore(cmd *cobra.Command, cfgFile string) (*history.Store, string, error) {
	cfg, err := resolveConfig(cmd, cfgFile)
	if err != nil {
		return nil, "", err
	}
	store, err := history.New(cfg.HistoryDir, logging.NewComponentLogger("History"))
	if err != nil {
		return nil, "", err
	}
	return store, cfg.ProjectID, nil
}
