package main

import (
	"fmt"
	"upload-coordinator/internal/core/chunk"

	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newPlanCmd())
}

func newPlanCmd() *cobra.Command {
	var chunkSize string

	cmd := &cobra.Command{
		Use:   "plan <size>",
		Short: "Print the chunk plan the server computes for a file size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := units.RAMInBytes(args[0])
			if err != nil {
				return fmt.Errorf("invalid size %q: %w", args[0], err)
			}

			var desired int64
			if chunkSize != "" {
				if desired, err = units.RAMInBytes(chunkSize); err != nil {
					return fmt.Errorf("invalid chunk size %q: %w", chunkSize, err)
				}
			}

			plan := chunk.Compute(size, desired)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "size:        %s (%d bytes)\n", humanize.IBytes(uint64(plan.FileSize)), plan.FileSize)
			fmt.Fprintf(out, "chunk size:  %s (%d bytes)\n", humanize.IBytes(uint64(plan.ChunkSize)), plan.ChunkSize)
			fmt.Fprintf(out, "parts:       %d\n", plan.TotalChunks)
			if plan.TotalChunks > 0 {
				last := plan.PartSize(plan.TotalChunks - 1)
				fmt.Fprintf(out, "last part:   %s (%d bytes)\n", humanize.IBytes(uint64(last)), last)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&chunkSize, "chunk-size", "", "Desired chunk size, ex: 8MiB")
	return cmd
}
