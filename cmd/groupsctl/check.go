package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/dangerclosesec/studygroups/internal/service"
	"github.com/spf13/cobra"
)

var checkParallelism int

func init() {
	checkCmd.Flags().IntVarP(&checkParallelism, "parallelism", "p", runtime.GOMAXPROCS(0), "Groups checked concurrently")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report groups whose membership breaks an invariant",
	Long:  `check scans every group and reports groups without members, without an admin, over capacity, or whose creator is not a member. It exits non-zero when any violation is found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, closeDB, err := openGorm(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		return runCheck(cmd.Context(), repository.NewGroupRepository(gdb), cmd.OutOrStdout(), checkParallelism)
	},
}

func runCheck(ctx context.Context, store repository.GroupRepositoryIface, out io.Writer, parallelism int) error {
	violations, err := service.CheckInvariants(ctx, store, parallelism)
	if err != nil {
		return fmt.Errorf("checking invariants: %w", err)
	}
	if len(violations) == 0 {
		fmt.Fprintln(out, "All groups consistent")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tVIOLATION\tDETAIL")
	for _, v := range violations {
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.GroupID, v.Kind, v.Detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return fmt.Errorf("%d invariant violations", len(violations))
}
