package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

func newScanExpiryCmd(root *rootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "scan-expiry",
		Short: "Run one calibration expiry scan and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.DateOnly, at)
				if err != nil {
					return err
				}
				now = parsed
			}

			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, scanErr := a.scanner.ScanAt(cmd.Context(), now)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			return scanErr
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "scan as of this date (YYYY-MM-DD) instead of now")
	return cmd
}
