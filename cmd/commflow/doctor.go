package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Drakz0n/CommFlow/internal/watch"
)

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report commissions stored in more than one file",
		Long: `Doctor lists ids that appear in several files, which happens when a move is
interrupted between writing the new file and removing the old one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dups, err := a.commissions.Duplicates(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(dups) == 0 {
				printOK(out, "no duplicate commissions")
				return nil
			}
			for _, d := range dups {
				fmt.Fprintf(out, "%s %s\n", warnLabel("DUPLICATE"), d.ID)
				for _, p := range d.Paths {
					fmt.Fprintf(out, "    %s\n", p)
				}
			}
			return fmt.Errorf("%d duplicate commission id(s)", len(dups))
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print changes to data files until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := watch.New(a.store, a.logger)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()
			out := cmd.OutOrStdout()
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case ev, ok := <-w.Events():
					if !ok {
						return nil
					}
					fmt.Fprintf(out, "%-6s %-10s %s\n", ev.Op, ev.Kind, ev.Path)
				case err, ok := <-w.Errors():
					if !ok {
						return nil
					}
					fmt.Fprintf(out, "%s %v\n", errLabel("ERROR"), err)
				}
			}
		},
	}
}
