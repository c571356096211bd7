package repository

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	f "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain"
	pg "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/infrastructure"
	"github.com/krew-solutions/dynamic-filters-go/dynfilters/session"
)

// Page is one slice of a filtered listing. Total counts every matching
// row regardless of pagination.
type Page struct {
	Rows  []map[string]any
	Total int64
}

// FilterError reports a request the listed table cannot answer, such as a
// filter on a relation the schema does not map.
type FilterError struct {
	Err error
}

func (e *FilterError) Error() string {
	return "unable to apply filters: " + e.Err.Error()
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

type ListerOption func(*Lister)

func WithLogger(logger *slog.Logger) ListerOption {
	return func(l *Lister) {
		if logger != nil {
			l.logger = logger
		}
	}
}

type ListOption func(*listOptions)

type listOptions struct {
	limit  uint64
	offset uint64
}

func Limit(limit uint64) ListOption {
	return func(o *listOptions) {
		o.limit = limit
	}
}

func Offset(offset uint64) ListOption {
	return func(o *listOptions) {
		o.offset = offset
	}
}

// Lister lists the parent table of a schema through a Filterer.
type Lister struct {
	pool     session.SessionPool
	filterer *f.Filterer
	schema   *pg.SchemaRegistry
	logger   *slog.Logger
}

func NewLister(pool session.SessionPool, filterer *f.Filterer, schema *pg.SchemaRegistry, opts ...ListerOption) *Lister {
	l := &Lister{
		pool:     pool,
		filterer: filterer,
		schema:   schema,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for i := range opts {
		opts[i](l)
	}
	return l
}

// List reads the requested page and the total count inside one
// transaction.
func (l *Lister) List(ctx context.Context, request f.FilterRequest, opts ...ListOption) (Page, error) {
	var o listOptions
	for i := range opts {
		opts[i](&o)
	}

	q := pg.NewPgQuery(l.schema)
	if err := l.filterer.Apply(q, request); err != nil {
		return Page{}, &FilterError{Err: err}
	}
	q.Paginate(o.limit, o.offset)

	rowsSQL, rowsParams, err := q.ToSQL()
	if err != nil {
		return Page{}, errors.Wrap(err, "unable to render listing")
	}
	countSQL, countParams, err := q.CountSQL()
	if err != nil {
		return Page{}, errors.Wrap(err, "unable to render count")
	}
	l.logger.DebugContext(ctx, "listing",
		slog.String("table", l.schema.ParentTable),
		slog.String("sql", rowsSQL),
		slog.Int("params", len(rowsParams)),
	)

	var page Page
	err = l.pool.Session(ctx, func(s session.Session) error {
		return s.Atomic(func(tx session.Session) error {
			dbSession, ok := tx.(session.DbSession)
			if !ok {
				return errors.New("session has no database connection")
			}
			conn := dbSession.Connection()

			page.Rows, err = fetch(conn, rowsSQL, rowsParams)
			if err != nil {
				return err
			}
			return errors.Wrap(conn.QueryRow(countSQL, countParams...).Scan(&page.Total), "unable to count rows")
		})
	})
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

func fetch(conn session.DbConnection, query string, params []any) ([]map[string]any, error) {
	rows, err := conn.Query(query, params...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list rows")
	}
	defer rows.Close()

	columns := rows.Columns()
	result := []map[string]any{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Wrap(err, "unable to read row")
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			if i < len(values) {
				row[column] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, errors.Wrap(rows.Err(), "unable to list rows")
}
