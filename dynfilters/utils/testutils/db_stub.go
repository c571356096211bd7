package testutils

import (
	"context"
	"errors"

	"github.com/spf13/cast"

	"github.com/krew-solutions/dynamic-filters-go/dynfilters/session"
)

// NewDbSessionStub answers successive Query and QueryRow calls with the
// given result sets, in order.
func NewDbSessionStub(results ...*RowsStub) *DbSessionStub {
	stub := &DbSessionStub{Results: results}
	stub.conn = &connectionStub{session: stub}
	return stub
}

type DbSessionStub struct {
	Results      []*RowsStub
	ActualQuery  []string
	ActualParams [][]any
	AtomicCalls  int
	// QueryErr is returned by every Query call when set
	QueryErr error
	conn     *connectionStub
}

func (s *DbSessionStub) Context() context.Context {
	return context.Background()
}

func (s *DbSessionStub) Atomic(callback session.SessionCallback) error {
	s.AtomicCalls++
	return callback(s)
}

func (s *DbSessionStub) Connection() session.DbConnection {
	return s.conn
}

func (s *DbSessionStub) record(query string, args []any) *RowsStub {
	s.ActualQuery = append(s.ActualQuery, query)
	s.ActualParams = append(s.ActualParams, args)
	if len(s.Results) == 0 {
		return NewRowsStub(nil)
	}
	next := s.Results[0]
	s.Results = s.Results[1:]
	return next
}

// SessionPoolStub hands out one DbSessionStub.
type SessionPoolStub struct {
	Stub *DbSessionStub
}

func (p *SessionPoolStub) Session(_ context.Context, callback session.SessionPoolCallback) error {
	return callback(p.Stub)
}

type connectionStub struct {
	session *DbSessionStub
}

func (c *connectionStub) Query(query string, args ...any) (session.Rows, error) {
	rows := c.session.record(query, args)
	if c.session.QueryErr != nil {
		return nil, c.session.QueryErr
	}
	return rows, nil
}

func (c *connectionStub) QueryRow(query string, args ...any) session.Row {
	return &RowStub{rows: c.session.record(query, args)}
}

func NewRowsStub(columns []string, rows ...[]any) *RowsStub {
	return &RowsStub{
		columns: columns,
		rows:    rows,
		idx:     -1,
	}
}

type RowsStub struct {
	columns []string
	rows    [][]any
	idx     int
	Closed  bool
}

func (r *RowsStub) Close() {
	r.Closed = true
}

func (r *RowsStub) Err() error {
	return nil
}

func (r *RowsStub) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *RowsStub) Columns() []string {
	return r.columns
}

func (r *RowsStub) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return nil, errors.New("no current row")
	}
	return r.rows[r.idx], nil
}

func (r *RowsStub) Scan(dest ...any) error {
	values, err := r.Values()
	if err != nil {
		return err
	}
	for i, val := range values {
		if i >= len(dest) {
			break
		}
		switch d := dest[i].(type) {
		case *int:
			*d, err = cast.ToIntE(val)
		case *int64:
			*d, err = cast.ToInt64E(val)
		case *string:
			*d, err = cast.ToStringE(val)
		case *bool:
			*d, err = cast.ToBoolE(val)
		case *float64:
			*d, err = cast.ToFloat64E(val)
		case *any:
			*d = val
		default:
			err = errors.New("unsupported scan type")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type RowStub struct {
	rows *RowsStub
}

func (r *RowStub) Scan(dest ...any) error {
	if !r.rows.Next() {
		return errors.New("no rows in result set")
	}
	return r.rows.Scan(dest...)
}
