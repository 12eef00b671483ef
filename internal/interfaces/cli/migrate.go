package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/chemenv/internal/infrastructure/database/postgres"
	"github.com/turtacn/chemenv/pkg/errors"
)

// NewMigrateCmd creates the migrate command group for the postgres schema.
// Connection settings come from the postgres section of the config.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the postgres schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.InvalidParam("steps must be >= 1").WithDetail(strconv.Itoa(steps))
			}
			return withMigrator(cmd, func(m *postgres.Migrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK: rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(m *postgres.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "OK: schema is up to date")
					return nil
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(m *postgres.Migrator) error {
					v, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return errors.InvalidParam("version must be an integer").WithDetail(args[0])
				}
				return withMigrator(cmd, func(m *postgres.Migrator) error {
					if err := m.Force(v); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "OK: forced version %d\n", v)
					return nil
				})
			},
		},
	)
	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(*postgres.Migrator) error) error {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if cc.Config.Postgres.Host == "" {
		return errors.InvalidParam("postgres.host is not configured")
	}
	conn, err := postgres.NewConnection(cc.Config.Postgres, cc.Logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := cc.commandContext(cmd)
	defer cancel()
	m, err := postgres.NewMigrator(ctx, conn.DB(), cc.Logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

//Personal.AI order the ending
