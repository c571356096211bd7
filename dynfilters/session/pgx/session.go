package pgx

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/krew-solutions/dynamic-filters-go/dynfilters/session"
)

// Session wraps a pooled connection outside of any transaction.
type Session struct {
	ctx       context.Context
	conn      *pgxpool.Conn
	txOptions pgx.TxOptions
}

func NewSession(ctx context.Context, conn *pgxpool.Conn, txOptions pgx.TxOptions) *Session {
	return &Session{
		ctx:       ctx,
		conn:      conn,
		txOptions: txOptions,
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Connection() session.DbConnection {
	return &connection{ctx: s.ctx, exec: s.conn}
}

func (s *Session) Atomic(callback session.SessionCallback) error {
	tx, err := s.conn.BeginTx(s.ctx, s.txOptions)
	if err != nil {
		return errors.Wrap(err, "unable to start transaction")
	}
	return run(s.ctx, tx, NewTransactionSession(s.ctx, tx), callback, "failed to commit transaction")
}

// TransactionSession runs inside a transaction; nested Atomic calls use
// savepoints.
type TransactionSession struct {
	ctx context.Context
	tx  pgx.Tx
}

func NewTransactionSession(ctx context.Context, tx pgx.Tx) *TransactionSession {
	return &TransactionSession{
		ctx: ctx,
		tx:  tx,
	}
}

func (s *TransactionSession) Context() context.Context {
	return s.ctx
}

func (s *TransactionSession) Connection() session.DbConnection {
	return &connection{ctx: s.ctx, exec: s.tx}
}

func (s *TransactionSession) Atomic(callback session.SessionCallback) error {
	nestedTx, err := s.tx.Begin(s.ctx)
	if err != nil {
		return errors.Wrap(err, "unable to start savepoint")
	}
	return run(s.ctx, nestedTx, NewTransactionSession(s.ctx, nestedTx), callback, "failed to commit savepoint")
}

func run(ctx context.Context, tx pgx.Tx, sess session.Session, callback session.SessionCallback, commitMsg string) error {
	err := callback(sess)
	if err != nil {
		if txErr := tx.Rollback(ctx); txErr != nil {
			return multierror.Append(err, txErr)
		}
		return err
	}

	if txErr := tx.Commit(ctx); txErr != nil {
		return errors.Wrap(txErr, commitMsg)
	}
	return nil
}

// executor interface for both *pgxpool.Conn and pgx.Tx
type executor interface {
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

// connection implements session.DbConnection
type connection struct {
	ctx  context.Context
	exec executor
}

func (c *connection) Query(query string, args ...any) (session.Rows, error) {
	r, err := c.exec.Query(c.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows{r}, nil
}

func (c *connection) QueryRow(query string, args ...any) session.Row {
	return c.exec.QueryRow(c.ctx, query, args...)
}

type rows struct {
	pgx.Rows
}

func (r rows) Columns() []string {
	fields := r.FieldDescriptions()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.Name
	}
	return names
}
