package zdb

import (
	"context"
	"errors"

	"gopkg.in/check.v1"
)

type ErrorsSuite struct{}

var _ = check.Suite(&ErrorsSuite{})

type codeError struct{ code int }

func (e codeError) Error() string { return "Table 'shop.orders' doesn't exist" }
func (e codeError) Code() int     { return e.code }

func (s *ErrorsSuite) TestUnknownTableHints(c *check.C) {
	tests := []struct {
		summary string
		prefix  string
		exists  map[string]bool
		message string
		hint    string
	}{{
		summary: "no prefix configured",
		message: "no such table: orders",
		hint:    "table orders does not exist and no table prefix is configured",
	}, {
		summary: "prefix not written",
		prefix:  "shop_",
		message: "no such table: main.orders",
		hint:    "write :_orders in the template to use the prefixed table shop_orders",
	}, {
		summary: "prefixed table exists",
		prefix:  "shop_",
		exists:  map[string]bool{"shop_orders": true},
		message: "no such table: orders",
		hint:    "write :_orders in the template to use the prefixed table shop_orders, which exists",
	}, {
		summary: "prefixed table missing too",
		prefix:  "shop_",
		exists:  map[string]bool{},
		message: "no such table: orders",
		hint:    "neither orders nor shop_orders exists",
	}, {
		summary: "prefix already applied",
		prefix:  "shop_",
		message: "no such table: shop_orders",
		hint:    "table shop_orders does not exist, the prefix shop_ is already applied",
	}, {
		summary: "unparsable message",
		prefix:  "shop_",
		message: "no such table",
		hint:    "check the table names of the template",
	}}
	for i, t := range tests {
		opts := Options{TablePrefix: t.prefix}
		if t.exists != nil {
			opts.TableExists = func(ctx context.Context, table string) (bool, error) {
				return t.exists[table], nil
			}
		}
		db, err := NewDB(&fakeConn{}, opts)
		c.Assert(err, check.IsNil)

		err = db.databaseError(context.Background(), errors.New(t.message), "SELECT * FROM orders")
		var dbErr *DatabaseError
		c.Assert(errors.As(err, &dbErr), check.Equals, true)
		c.Check(dbErr.Hint, check.Equals, t.hint, check.Commentf("test %d: %s", i, t.summary))
	}
}

func (s *ErrorsSuite) TestErrorCode(c *check.C) {
	db, err := NewDB(&fakeConn{}, Options{TablePrefix: "shop_"})
	c.Assert(err, check.IsNil)

	err = db.databaseError(context.Background(), codeError{code: ErrUnknownTable}, "SELECT * FROM orders")
	c.Check(err, check.ErrorMatches, `database error 1146: Table 'shop.orders' doesn't exist \(hint: write :_orders .*\)`)

	// Wrapped errors are returned unchanged.
	c.Check(db.databaseError(context.Background(), err, "SELECT"), check.Equals, err)

	err = db.databaseError(context.Background(), codeError{code: 1064}, "SELECT")
	var dbErr *DatabaseError
	c.Assert(errors.As(err, &dbErr), check.Equals, true)
	c.Check(dbErr.Code, check.Equals, 1064)
	c.Check(dbErr.Hint, check.Equals, "")
}

func (s *ErrorsSuite) TestTableExistsFailure(c *check.C) {
	db, err := NewDB(&fakeConn{}, Options{
		TablePrefix: "shop_",
		TableExists: func(ctx context.Context, table string) (bool, error) {
			return false, errors.New("no schema access")
		},
	})
	c.Assert(err, check.IsNil)

	c.Check(db.unknownTableHint(context.Background(), "orders"), check.Equals, "write :_orders in the template to use the prefixed table shop_orders")
}
