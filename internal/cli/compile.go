package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zdbsql/zdb"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	var flags templateFlags
	cmd := &cobra.Command{
		Use:   "compile TEMPLATE",
		Short: "Compile a template without running it",
		Long: `Compile a template with the given values and print the prepared
statement, its bind values and the escaped query. Strings are escaped for
the configured driver.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			dialect, err := zdb.ParseDialect(cfg.Driver)
			if err != nil {
				return err
			}
			db, err := zdb.NewDB(zdb.NewSQLConn(nil, zdb.SQLConnConfig{Dialect: dialect}), zdb.Options{
				TablePrefix: cfg.TablePrefix,
				Logger:      getLogger(cmd.Context()),
			})
			if err != nil {
				return err
			}

			stmt, err := flags.prepare(args[0])
			if err != nil {
				return err
			}
			params, err := flags.params()
			if err != nil {
				return err
			}
			compiled, err := db.Compile(stmt, params)
			if err != nil {
				return err
			}
			return renderCompiled(cmd, outputMode(cfg.Output, cmd.OutOrStdout()), compiled)
		},
	}
	flags.register(cmd)
	return cmd
}

func renderCompiled(cmd *cobra.Command, mode string, c *zdb.Compiled) error {
	w := cmd.OutOrStdout()
	binds := c.BindValues
	if binds == nil {
		binds = []any{}
	}
	if mode == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"kind":    c.Kind.String(),
			"sql":     c.ParamSQL,
			"binds":   binds,
			"escaped": c.EscapedSQL,
		})
	}
	_, _ = fmt.Fprintf(w, "kind:    %s\n", c.Kind)
	_, _ = fmt.Fprintf(w, "sql:     %s\n", c.ParamSQL)
	for i, v := range binds {
		_, _ = fmt.Fprintf(w, "bind %d:  %s\n", i+1, formatValue(v))
	}
	_, _ = fmt.Fprintf(w, "escaped: %s\n", c.EscapedSQL)
	return nil
}
