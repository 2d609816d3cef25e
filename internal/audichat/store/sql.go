package store

import (
	"context"
	"database/sql"
	"fmt"

	// Drivers for the two supported databases.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/logger"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// auditColumns is the canonical column set queried from the audit
// table. Column names double as the record keys FromRecord expects.
var auditColumns = []string{
	"dbusername", "os_username", "action_name", "object_schema",
	"object_name", "sql_text", "sql_binds", "event_timestamp",
	"sessionid", "userhost", "terminal", "authentication_type",
	"client_program_name", "instance_id",
}

// LoadSQL materializes the whole audit table into a Dataset. The
// driver name must be "postgres" or "mysql"; the table name comes from
// configuration and is interpolated, so it must never carry user input.
func LoadSQL(ctx context.Context, driver, dsn, table string) (model.Dataset, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", driver, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("reaching %s database: %w", driver, err)
	}

	query := "SELECT "
	for i, col := range auditColumns {
		if i > 0 {
			query += ", "
		}
		query += col
	}
	query += " FROM " + table

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var ds model.Dataset
	for rows.Next() {
		values := make([]sql.NullString, len(auditColumns))
		scan := make([]any, len(auditColumns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		rec := make(map[string]any, len(auditColumns))
		for i, col := range auditColumns {
			if values[i].Valid {
				rec[col] = values[i].String
			}
		}
		ds = append(ds, model.FromRecord(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", table, err)
	}
	logger.L().Infow("dataset loaded", "driver", driver, "table", table, "events", len(ds))
	return ds, nil
}
