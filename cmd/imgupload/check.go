package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/config"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/index"
)

// NewCheckCmd creates the check subcommand.
func NewCheckCmd() *cobra.Command {
	var override config.Config

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and connectivity",
		Long: `Validate the configuration, connect to MongoDB and the bucket, and report
how many records would be read and how many objects the bucket already holds.
Nothing is downloaded or written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, override)
			if err != nil {
				return err
			}

			logger, err := newLogger(cmd, false)
			if err != nil {
				return err
			}
			defer logger.Close()

			ctx := cmd.Context()
			src, st, err := openEndpoints(ctx, cfg, logger.Logger)
			if err != nil {
				return err
			}
			defer closeEndpoints(src, st, logger.Logger)

			records, err := src.Count(ctx)
			if err != nil {
				return err
			}
			idx := index.Load(ctx, st, logger.Logger)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source:   %s (%d records)\n", src.Name(), records)
			fmt.Fprintf(out, "bucket:   %s (%d objects)\n", st.Name(), idx.Len())
			fmt.Fprintln(out, "status:   OK")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&override.Bucket, "bucket", "", "Destination bucket name or URL (overrides BUCKET_NAME)")
	flags.StringVar(&override.Database, "database", "", "Source database (overrides DB_NAME)")
	flags.StringVar(&override.Collection, "collection", "", "Source collection (overrides COLLECTION_NAME)")
	flags.StringVar(&override.ObjectPrefix, "prefix", "", "Key prefix inside the bucket")

	return cmd
}
