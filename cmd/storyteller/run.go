// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"storyteller/internal/pipeline"
)

func runCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the result as JSON",
		Long: `Run the pipeline once and print the result as JSON.
Exits with status 1 when the run fails; a skipped run is not a failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a := newApp(cmd.Context(), cfg, force)
			defer a.Close()

			res := a.pipeline.Run(cmd.Context())

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if res.Status == pipeline.StatusError {
				return errors.New(res.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip the last-run guard for this run")
	return cmd
}
