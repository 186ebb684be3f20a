package container

import (
	"context"

	"github.com/tesserdb/tesser/internal/engine"
	"github.com/tesserdb/tesser/internal/errors"
	"github.com/tesserdb/tesser/pkg/types"
)

// Query is a row query bound to a session. Creating one never fails:
// statement errors, including parse errors, surface when Fetch runs it.
type Query struct {
	c   *Container
	tql string
}

// Query prepares a statement against the container.
func (c *Container) Query(tql string) *Query {
	return &Query{c: c, tql: tql}
}

// Fetch runs the statement and returns its result set. In manual-commit
// mode the query joins the session's transaction and sees its uncommitted
// writes; other transactions' uncommitted work stays invisible.
func (q *Query) Fetch(ctx context.Context) (*RowSet, error) {
	st, err := engine.ParseQuery(q.c.schema, q.tql)
	if err != nil {
		return nil, err
	}
	id, _, err := q.c.begin()
	if err != nil {
		return nil, err
	}
	rows, err := q.c.store.engine.Scan(q.c.handle, id)
	if err != nil {
		return nil, q.c.fail(err, id)
	}
	out, err := st.Evaluate(rows)
	if err != nil {
		return nil, err
	}
	return &RowSet{rows: out}, nil
}

// RowSet is the materialized result of one fetch.
type RowSet struct {
	rows []types.Row
	at   int
}

// Size returns the number of rows in the set.
func (rs *RowSet) Size() int { return len(rs.rows) }

// HasNext reports whether another row remains.
func (rs *RowSet) HasNext() bool { return rs.at < len(rs.rows) }

// Next returns the next row.
func (rs *RowSet) Next() (types.Row, error) {
	if !rs.HasNext() {
		return nil, errors.NewQueryError(errors.CodeUnexpected,
			"result set is exhausted")
	}
	row := rs.rows[rs.at]
	rs.at++
	return row, nil
}
