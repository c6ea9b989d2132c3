package main

import (
	"fmt"
	"time"

	"github.com/ashureev/chatengine/internal/store"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and load the demo tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := store.NewSQLite(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := store.Seed(cmd.Context(), s, time.Now()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "demo tenant seeded: company_id=%d db=%s\n", store.DemoCompanyID, dbPath)
			return err
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "./data/chatengine.db", "path of the SQLite database")

	return cmd
}
