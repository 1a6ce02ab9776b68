package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/josh-kwaku/fundledger/internal/config"
	"github.com/josh-kwaku/fundledger/internal/domain"
	"github.com/josh-kwaku/fundledger/internal/repository"
)

// profileCmd seeds a display profile for local development. In production
// the identity provider owns this table.
func profileCmd() *cobra.Command {
	var userID, name, email string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Create or update a donor/creator display profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(userID)
			if err != nil || id == uuid.Nil {
				return fmt.Errorf("profile: --user must be a non-nil UUID")
			}
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("profile: --name is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			p := &domain.Profile{UserID: id, Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
			if err := repository.NewProfileRepository(db).Upsert(cmd.Context(), p); err != nil {
				return fmt.Errorf("profile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "profile %s saved\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User UUID")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Contact email")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
