package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/zdbsql/zdb"
	"github.com/zdbsql/zdb/internal/config"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var flags templateFlags
	cmd := &cobra.Command{
		Use:   "query TEMPLATE",
		Short: "Run a template against the configured database",
		Long: `Run a template against the configured database and print the rows
it returns, or the number of affected rows.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			stmt, err := flags.prepare(args[0])
			if err != nil {
				return err
			}
			params, err := flags.params()
			if err != nil {
				return err
			}

			sqldb, dialect, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = sqldb.Close() }()

			ctx := cmd.Context()
			conn, err := sqldb.Conn(ctx)
			if err != nil {
				return fmt.Errorf("cannot connect to database: %w", err)
			}
			defer func() { _ = conn.Close() }()

			res, err := runQuery(ctx, cfg, conn, dialect, stmt, params, getLogger(ctx))
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), outputMode(cfg.Output, cmd.OutOrStdout()), stmt.Kind(), res)
		},
	}
	flags.register(cmd)
	return cmd
}

// openDatabase opens the configured database.
func openDatabase(cfg *config.Config) (*sql.DB, zdb.Dialect, error) {
	dialect, err := zdb.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, 0, err
	}
	if dialect == zdb.DialectMySQL {
		db, err := zdb.OpenMySQL(cfg.DSN)
		return db, dialect, err
	}
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot open database: %w", err)
	}
	return db, dialect, nil
}

// runQuery runs stmt on conn with the configured table prefix and smart
// joins.
func runQuery(ctx context.Context, cfg *config.Config, conn *sql.Conn, dialect zdb.Dialect, stmt *zdb.Statement, params zdb.M, logger *slog.Logger) (*zdb.Result, error) {
	sqlConn := zdb.NewSQLConn(conn, zdb.SQLConnConfig{
		Dialect:          dialect,
		QualifiedColumns: dialect == zdb.DialectMySQL,
		Logger:           logger,
	})
	db, err := zdb.NewDB(sqlConn, zdb.Options{
		TablePrefix: cfg.TablePrefix,
		SmartJoins:  cfg.SmartJoins,
		Logger:      logger,
		TableExists: zdb.TableExistsFunc(conn, dialect),
	})
	if err != nil {
		return nil, err
	}
	return db.Query(ctx, stmt, params).Result()
}
