package pgx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krew-solutions/dynamic-filters-go/dynfilters/session"
)

type SessionPoolOption func(*SessionPool)

// ReadOnly makes Atomic open read-only repeatable-read transactions.
func ReadOnly() SessionPoolOption {
	return func(p *SessionPool) {
		p.txOptions = pgx.TxOptions{
			IsoLevel:   pgx.RepeatableRead,
			AccessMode: pgx.ReadOnly,
		}
	}
}

type SessionPool struct {
	pool      *pgxpool.Pool
	txOptions pgx.TxOptions
}

func NewSessionPool(pool *pgxpool.Pool, opts ...SessionPoolOption) *SessionPool {
	p := &SessionPool{pool: pool}
	for i := range opts {
		opts[i](p)
	}
	return p
}

func (p *SessionPool) Session(ctx context.Context, callback session.SessionPoolCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return callback(NewSession(ctx, conn, p.txOptions))
}
