package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/errors"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS canteen_order (
	number     bigint PRIMARY KEY,
	created_at timestamptz NOT NULL,
	method     text NOT NULL,
	total      bigint NOT NULL,
	tendered   bigint NOT NULL,
	lines      jsonb NOT NULL,
	change     jsonb
);
CREATE INDEX IF NOT EXISTS canteen_order_created_at ON canteen_order (created_at);`

const pgSelect = `SELECT number, created_at, method, total, tendered, lines, change FROM canteen_order`

type PgStore struct {
	db *pgxpool.Pool
}

var _ Store = (*PgStore)(nil)

func NewPgStore(ctx context.Context, dsn string) (*PgStore, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Annotate(err, "pg connect")
	}
	if _, err = db.Exec(ctx, pgSchema); err != nil {
		db.Close()
		return nil, errors.Annotate(err, "pg schema")
	}
	return &PgStore{db: db}, nil
}

func (self *PgStore) Close() { self.db.Close() }

// LastNumber seeds AtomicSequence after restart.
func (self *PgStore) LastNumber(ctx context.Context) (uint32, error) {
	var n int64
	err := self.db.QueryRow(ctx, `SELECT COALESCE(MAX(number), 0) FROM canteen_order`).Scan(&n)
	return uint32(n), errors.Annotate(err, "pg last number")
}

func (self *PgStore) Save(ctx context.Context, o *Order) error {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return errors.Trace(err)
	}
	var change []byte
	if o.Change != nil {
		if change, err = json.Marshal(o.Change); err != nil {
			return errors.Trace(err)
		}
	}
	_, err = self.db.Exec(ctx, `INSERT INTO canteen_order
		(number, created_at, method, total, tendered, lines, change)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		int64(o.Number), o.Time, string(o.Method), int64(o.Total), int64(o.Tendered), lines, change)
	return errors.Annotate(err, "pg save")
}

func (self *PgStore) Get(ctx context.Context, number uint32) (*Order, error) {
	rows, err := self.db.Query(ctx, pgSelect+` WHERE number = $1`, int64(number))
	if err != nil {
		return nil, errors.Annotate(err, "pg get")
	}
	list, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Annotatef(ErrNotFound, "number=%d", number)
	}
	return &list[0], nil
}

func (self *PgStore) List(ctx context.Context) ([]Order, error) {
	rows, err := self.db.Query(ctx, pgSelect+` ORDER BY number`)
	if err != nil {
		return nil, errors.Annotate(err, "pg list")
	}
	return scanOrders(rows)
}

func (self *PgStore) Between(ctx context.Context, from, to time.Time) ([]Order, error) {
	rows, err := self.db.Query(ctx, pgSelect+` WHERE created_at >= $1 AND created_at < $2 ORDER BY number`, from, to)
	if err != nil {
		return nil, errors.Annotate(err, "pg between")
	}
	return scanOrders(rows)
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	list := []Order{}
	for rows.Next() {
		var o Order
		var number, total, tendered int64
		var method string
		var lines, change []byte
		if err := rows.Scan(&number, &o.Time, &method, &total, &tendered, &lines, &change); err != nil {
			return nil, errors.Annotate(err, "pg scan")
		}
		o.Number = uint32(number)
		o.Method = Method(method)
		o.Total = currency.Amount(total)
		o.Tendered = currency.Amount(tendered)
		if err := json.Unmarshal(lines, &o.Lines); err != nil {
			return nil, errors.Annotatef(err, "pg order=%d lines", o.Number)
		}
		if len(change) != 0 {
			if err := json.Unmarshal(change, &o.Change); err != nil {
				return nil, errors.Annotatef(err, "pg order=%d change", o.Number)
			}
		}
		list = append(list, o)
	}
	return list, errors.Annotate(rows.Err(), "pg rows")
}
