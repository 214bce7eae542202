package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/mcdev12/auctionhouse/go/internal/sqlutil"
)

// Record names in the auction_records table.
const (
	recordState   = "auction"
	recordCatalog = "catalog"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	Name     string
	jsonType string
	lockRows string
	rebind   func(string) string
}

var (
	// Postgres is used with github.com/lib/pq.
	Postgres = Dialect{Name: "postgres", jsonType: "JSONB", lockRows: " FOR UPDATE", rebind: sqlutil.Dollar}
	// SQLite is used with modernc.org/sqlite.
	SQLite = Dialect{Name: "sqlite", jsonType: "BLOB", rebind: func(q string) string { return q }}
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres, nil
	case "sqlite":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported store driver %q", driver)
}

// SQLStore keeps both records as rows of one table. The backup column holds
// the rolling backup for the auction row and the one-time snapshot for the
// catalog row.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore creates the table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS auction_records (
	name       TEXT PRIMARY KEY,
	data       %[1]s NOT NULL,
	backup     %[1]s,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, dialect.jsonType)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create auction_records: %w", err)
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

type record struct {
	Data   []byte
	Backup pqtype.NullRawMessage
}

// queries binds the store statements to one transaction.
type queries struct {
	tx *sql.Tx
	d  Dialect
}

func (st *SQLStore) newQueries(tx *sql.Tx) *queries {
	return &queries{tx: tx, d: st.dialect}
}

func (q *queries) get(ctx context.Context, name string) (record, bool, error) {
	var r record
	err := q.tx.QueryRowContext(ctx,
		q.d.rebind("SELECT data, backup FROM auction_records WHERE name = ?"+q.d.lockRows), name,
	).Scan(&r.Data, &r.Backup)
	if errors.Is(err, sql.ErrNoRows) {
		return r, false, nil
	}
	if err != nil {
		return r, false, fmt.Errorf("get %s record: %w", name, err)
	}
	return r, true, nil
}

func (q *queries) insert(ctx context.Context, name string, data []byte) error {
	_, err := q.tx.ExecContext(ctx,
		q.d.rebind("INSERT INTO auction_records (name, data, backup) VALUES (?, ?, ?)"),
		name, data, sqlutil.ToNullRawMessage(nil))
	if err != nil {
		return fmt.Errorf("insert %s record: %w", name, err)
	}
	return nil
}

// saveState moves the current auction row into the backup column and stores data.
func (q *queries) saveState(ctx context.Context, data []byte) error {
	_, err := q.tx.ExecContext(ctx,
		q.d.rebind("UPDATE auction_records SET backup = data, data = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?"),
		data, recordState)
	if err != nil {
		return fmt.Errorf("save auction record: %w", err)
	}
	return nil
}

func (q *queries) saveCatalog(ctx context.Context, data []byte) error {
	_, err := q.tx.ExecContext(ctx,
		q.d.rebind("UPDATE auction_records SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?"),
		data, recordCatalog)
	if err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// current returns valid encoded records, repairing missing or corrupt rows.
func (q *queries) current(ctx context.Context) (stateData, catalogData []byte, err error) {
	r, found, err := q.get(ctx, recordState)
	if err != nil {
		return nil, nil, err
	}
	stateData, repaired, err := checkState(r.Data, found)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case !found:
		err = q.insert(ctx, recordState, stateData)
	case repaired:
		err = q.saveState(ctx, stateData)
	}
	if err != nil {
		return nil, nil, err
	}

	r, found, err = q.get(ctx, recordCatalog)
	if err != nil {
		return nil, nil, err
	}
	catalogData, repaired = checkCatalog(r.Data, found)
	switch {
	case !found:
		err = q.insert(ctx, recordCatalog, catalogData)
	case repaired:
		err = q.saveCatalog(ctx, catalogData)
	}
	if err != nil {
		return nil, nil, err
	}
	return stateData, catalogData, nil
}

func (st *SQLStore) Load(ctx context.Context) (*models.AuctionState, models.Catalog, error) {
	var (
		s *models.AuctionState
		c models.Catalog
	)
	err := sqlutil.Run(ctx, st.db, st.newQueries, func(q *queries) error {
		stateData, catalogData, err := q.current(ctx)
		if err != nil {
			return err
		}
		if s, err = decodeState(stateData); err != nil {
			return err
		}
		c, err = decodeCatalog(catalogData)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return s, c, nil
}

func (st *SQLStore) Update(ctx context.Context, fn UpdateFunc) error {
	return sqlutil.Run(ctx, st.db, st.newQueries, func(q *queries) error {
		stateData, catalogData, err := q.current(ctx)
		if err != nil {
			return err
		}
		newState, newCatalog, err := apply(stateData, catalogData, fn)
		if err != nil {
			return err
		}
		if newState != nil {
			if err := q.saveState(ctx, newState); err != nil {
				return err
			}
		}
		if newCatalog != nil {
			return q.saveCatalog(ctx, newCatalog)
		}
		return nil
	})
}

func (st *SQLStore) Undo(ctx context.Context) error {
	return sqlutil.Run(ctx, st.db, st.newQueries, func(q *queries) error {
		r, found, err := q.get(ctx, recordState)
		if err != nil {
			return err
		}
		backup := sqlutil.FromNullRawMessage(r.Backup)
		if !found || backup == nil {
			return ErrNoBackupAvailable
		}
		_, err = q.tx.ExecContext(ctx,
			q.d.rebind("UPDATE auction_records SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?"),
			backup, recordState)
		if err != nil {
			return fmt.Errorf("restore backup: %w", err)
		}
		log.Info().Str("dialect", st.dialect.Name).Msg("auction record restored from backup")
		return nil
	})
}

func (st *SQLStore) SnapshotCatalog(ctx context.Context) error {
	return sqlutil.Run(ctx, st.db, st.newQueries, func(q *queries) error {
		if _, _, err := q.current(ctx); err != nil {
			return err
		}
		res, err := q.tx.ExecContext(ctx,
			q.d.rebind("UPDATE auction_records SET backup = data WHERE name = ? AND backup IS NULL"),
			recordCatalog)
		if err != nil {
			return fmt.Errorf("snapshot catalog: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			log.Info().Str("dialect", st.dialect.Name).Msg("catalog snapshot taken")
		}
		return nil
	})
}

func (st *SQLStore) Reset(ctx context.Context) (bool, error) {
	var restored bool
	err := sqlutil.Run(ctx, st.db, st.newQueries, func(q *queries) error {
		if _, _, err := q.current(ctx); err != nil {
			return err
		}
		def, err := encodeState(models.NewAuctionState())
		if err != nil {
			return err
		}
		if err := q.saveState(ctx, def); err != nil {
			return err
		}

		r, _, err := q.get(ctx, recordCatalog)
		if err != nil {
			return err
		}
		catalog := emptyCatalog
		if snapshot := sqlutil.FromNullRawMessage(r.Backup); snapshot != nil {
			catalog, restored = snapshot, true
		}
		return q.saveCatalog(ctx, catalog)
	})
	return restored, err
}

// Close closes the underlying database.
func (st *SQLStore) Close() error {
	return st.db.Close()
}
