package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ehr/admin/internal/config"
	"github.com/ehr/admin/internal/domain/admin"
	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/db"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ehr-admin",
		Short:         "Healthcare administration API server",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(orgCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				version, err := m.Up()
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Database at version %d.\n", version)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				st, err := m.Status()
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Current version: %d (dirty: %t)\n", st.Version, st.Dirty)
				fmt.Fprintf(out, "%-10s %-40s %s\n", "VERSION", "NAME", "STATUS")
				for _, mg := range st.Applied {
					fmt.Fprintf(out, "%-10d %-40s %s\n", mg.Version, mg.Name, "applied")
				}
				for _, mg := range st.Pending {
					fmt.Fprintf(out, "%-10d %-40s %s\n", mg.Version, mg.Name, "pending")
				}
				return nil
			})
		},
	})

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return withMigrator(func(m *db.Migrator) error {
				if err := m.Down(steps); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s).\n", steps)
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(downCmd)

	return cmd
}

func withMigrator(fn func(*db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	m, err := db.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer m.Close() //nolint:errcheck
	return fn(m)
}

// cliUserID attributes audit rows written by the CLI.
var cliUserID = uuid.Nil

func orgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Manage organizations",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Bootstrap a new organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, _ := cmd.Flags().GetString("code")
			name, _ := cmd.Flags().GetString("name")
			if code == "" || name == "" {
				return fmt.Errorf("--code and --name are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := admin.NewService(
				admin.NewOrganizationRepo(pool),
				admin.NewDepartmentRepo(pool),
				admin.NewLocaleSettingRepo(pool),
				db.NewTxRunner(pool),
				audit.NewPGSink(pool),
			)
			ctx = auth.WithPrincipal(ctx, auth.Principal{UserID: cliUserID, Roles: []string{auth.RoleAdmin}})
			org, err := svc.CreateOrganization(ctx, admin.CreateOrganizationRequest{Code: code, Name: name})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created organization %s (%s).\n", org.ID, org.Code)
			return nil
		},
	}
	createCmd.Flags().String("code", "", "Unique organization code")
	createCmd.Flags().String("name", "", "Display name")

	cmd.AddCommand(createCmd)
	return cmd
}
