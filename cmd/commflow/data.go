package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Drakz0n/CommFlow/internal/archive"
	"github.com/Drakz0n/CommFlow/internal/s3storage"
)

func newDataCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Inspect, export and import the data directory",
	}
	cmd.AddCommand(
		newDataPathCmd(a),
		newDataExportCmd(a),
		newDataImportCmd(a),
	)
	return cmd
}

func newDataPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.store.Root())
			return nil
		},
	}
}

func newDataExportCmd(a *app) *cobra.Command {
	var upload bool
	cmd := &cobra.Command{
		Use:   "export [dest.zip]",
		Short: "Write the data directory to a zip archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			taken := time.Now()
			dest := filepath.Join(os.TempDir(), filepath.Base(s3storage.ArchiveKey(taken)))
			if len(args) == 1 {
				dest = args[0]
			}
			size, err := archive.ExportFile(ctx, a.store.Root(), dest)
			if err != nil {
				return err
			}
			a.logger.Info("data exported", "dest", dest, "bytes", size)
			printOK(cmd.OutOrStdout(), "exported %s (%d bytes)", dest, size)
			if !upload {
				return nil
			}
			if !a.cfg.S3.Enabled() {
				return fmt.Errorf("upload requested but COMMFLOW_S3_ENDPOINT is not set")
			}
			store, err := s3storage.New(a.cfg.S3)
			if err != nil {
				return err
			}
			if err := store.EnsureBucket(ctx); err != nil {
				return err
			}
			f, err := os.Open(dest)
			if err != nil {
				return fmt.Errorf("open export: %w", err)
			}
			defer f.Close()
			key := s3storage.ArchiveKey(taken)
			if err := store.UploadArchive(ctx, key, f, size); err != nil {
				return err
			}
			a.logger.Info("export uploaded", "bucket", store.Bucket(), "key", key)
			printOK(cmd.OutOrStdout(), "uploaded s3://%s/%s", store.Bucket(), key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&upload, "upload", false, "Also upload the archive to the configured S3 bucket")
	return cmd
}

func newDataImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Copy a previously exported directory tree into the data directory",
		Long: `Import overwrites files that already exist in the data directory. The source
must be an absolute path under /tmp, /var/tmp or the user's Downloads,
Documents or Desktop folder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := archive.Import(args[0], a.store.Root(), archive.ImportOptions{}); err != nil {
				return err
			}
			a.logger.Info("data imported", "source", args[0])
			printOK(cmd.OutOrStdout(), "imported %s", args[0])
			return nil
		},
	}
}
