package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zdbsql/zdb"
)

// templateFlags are the flags shared by the commands taking a template.
type templateFlags struct {
	positional   []string
	named        []string
	raw          []string
	allowNumbers bool
}

func (f *templateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.positional, "arg", "a", nil, "positional value for the next ? (repeatable)")
	cmd.Flags().StringArrayVarP(&f.named, "named", "n", nil, "named value as name=value (repeatable)")
	cmd.Flags().StringArrayVarP(&f.raw, "raw", "r", nil, "raw SQL value as name=sql, written verbatim (repeatable)")
	cmd.Flags().BoolVar(&f.allowNumbers, "allow-numbers", false, "allow numeric literals in the template")
}

// prepare parses the template with the flag options.
func (f *templateFlags) prepare(template string) (*zdb.Statement, error) {
	var opts []zdb.PrepareOption
	if f.allowNumbers {
		opts = append(opts, zdb.AllowBareNumbers())
	}
	return zdb.Prepare(template, opts...)
}

// params builds the query arguments from the flags.
func (f *templateFlags) params() (zdb.M, error) {
	m := zdb.M{}
	for i, v := range f.positional {
		m[i+1] = parseValue(v)
	}
	for _, kv := range f.named {
		name, v, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid named value %q, expected name=value", kv)
		}
		if _, ok := m[name]; ok {
			return nil, fmt.Errorf("value %q given twice", name)
		}
		m[name] = parseValue(v)
	}
	for _, kv := range f.raw {
		name, sql, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid raw value %q, expected name=sql", kv)
		}
		if _, ok := m[name]; ok {
			return nil, fmt.Errorf("value %q given twice", name)
		}
		m[name] = zdb.Raw(sql)
	}
	return m, nil
}

// parseValue types a value given on the command line: null, true and false,
// integers and floats are recognised, anything else is a string.
func parseValue(s string) any {
	switch s {
	case "null", "NULL":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}
