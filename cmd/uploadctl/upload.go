package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"
	"upload-coordinator/internal/client"
	"upload-coordinator/internal/core/domain"

	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newUploadCmd())
}

func newUploadCmd() *cobra.Command {
	var (
		chunkSize   string
		strategy    string
		resume      string
		mimeType    string
		concurrency int
		retries     int
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file in parts and commit it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			server, _ := cmd.Flags().GetString("server")
			logger := newLogger(cmd)

			parsedStrategy, err := domain.ParseStorageStrategy(strategy)
			if err != nil {
				return err
			}

			opts := client.UploadOptions{
				FileName: filepath.Base(path),
				MimeType: mimeType,
				Strategy: parsedStrategy,
			}
			if opts.MimeType == "" {
				opts.MimeType = mime.TypeByExtension(filepath.Ext(path))
			}
			if chunkSize != "" {
				if opts.ChunkSize, err = units.RAMInBytes(chunkSize); err != nil {
					return fmt.Errorf("invalid chunk size %q: %w", chunkSize, err)
				}
			}
			if resume != "" {
				if opts.ResumeID, err = uuid.Parse(resume); err != nil {
					return fmt.Errorf("invalid upload id %q: %w", resume, err)
				}
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return err
			}

			start := time.Now()
			opts.Progress = func(sent, total int64) {
				logger.Debug("progress", "sent", humanize.IBytes(uint64(sent)), "total", humanize.IBytes(uint64(total)))
			}

			cmd.SilenceUsage = true
			c := client.New(server, client.Options{MaxRetries: retries, Concurrency: concurrency}, logger)
			result, err := c.UploadFile(cmd.Context(), f, info.Size(), opts)
			if err != nil {
				return err
			}

			elapsed := time.Since(start)
			rate := float64(info.Size()) / elapsed.Seconds()
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s as %s in %s (%s/s, %d parts reused)\n",
				humanize.IBytes(uint64(info.Size())),
				result.FileID,
				elapsed.Round(time.Millisecond),
				humanize.IBytes(uint64(rate)),
				result.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&chunkSize, "chunk-size", "", "Desired chunk size, ex: 8MiB")
	cmd.Flags().StringVar(&strategy, "strategy", "proxy", "Storage strategy: proxy or presigned")
	cmd.Flags().StringVar(&resume, "resume", "", "Upload id of a session to continue")
	cmd.Flags().StringVar(&mimeType, "mime-type", "", "Content type, guessed from the extension when empty")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 4, "Parts sent in parallel")
	cmd.Flags().IntVar(&retries, "retries", 3, "Retries of each request on transient failures")
	return cmd
}
