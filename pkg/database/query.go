package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// Exec runs a built statement and returns the affected row count
func Exec(ctx context.Context, conn dialect.ExecQuerier, q entsql.Querier) (int64, error) {
	query, args := q.Query()
	var res sql.Result
	if err := conn.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Query runs a select and calls scan once per row
func Query(ctx context.Context, conn dialect.ExecQuerier, q entsql.Querier, scan func(rows *entsql.Rows) error) error {
	query, args := q.Query()
	rows := &entsql.Rows{}
	if err := conn.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count runs a COUNT(*) select
func Count(ctx context.Context, conn dialect.ExecQuerier, q entsql.Querier) (int, error) {
	var n int
	err := Query(ctx, conn, q, func(rows *entsql.Rows) error {
		return rows.Scan(&n)
	})
	return n, err
}

// Exists reports whether the select returns at least one row
func Exists(ctx context.Context, conn dialect.ExecQuerier, q entsql.Querier) (bool, error) {
	found := false
	err := Query(ctx, conn, q, func(*entsql.Rows) error {
		found = true
		return nil
	})
	return found, err
}

// InsertID runs an insert and returns the generated id. Postgres reports it
// through RETURNING, sqlite through the last insert rowid.
func InsertID(ctx context.Context, conn dialect.ExecQuerier, dialectName string, ins *entsql.InsertBuilder) (int, error) {
	if dialectName == dialect.Postgres {
		var id int
		err := Query(ctx, conn, ins.Returning("id"), func(rows *entsql.Rows) error {
			return rows.Scan(&id)
		})
		if err != nil {
			return 0, err
		}
		if id == 0 {
			return 0, fmt.Errorf("insert returned no id")
		}
		return id, nil
	}

	query, args := ins.Query()
	var res sql.Result
	if err := conn.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// Now is the timestamp written to created_at/updated_at columns. Truncated to
// microseconds so values round-trip identically through Postgres and sqlite.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
