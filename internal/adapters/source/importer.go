package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/okian/pulse/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const importBatchSize = 500

// Importer loads a CSV file into a database table, replacing the table.
// Every column is created as TEXT so no value is ever rejected on import.
type Importer struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewImporter creates an Importer writing through db.
func NewImporter(db *gorm.DB, opts ...Option) *Importer {
	o := buildOptions(opts)
	return &Importer{db: db, logger: o.logger}
}

// Import drops table, recreates it from the CSV header and inserts every row.
// It returns the number of rows written.
func (im *Importer) Import(ctx context.Context, table string, r io.Reader) (int, error) {
	const op = "source.import"
	if strings.TrimSpace(table) == "" {
		table = DefaultTable
	}
	t, err := ReadCSV(r)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	db := im.db.WithContext(ctx)
	if err := db.Migrator().DropTable(table); err != nil {
		return 0, fmt.Errorf("%s: drop %s: %w", op, table, err)
	}

	defs := make([]string, len(t.Header))
	vars := make([]interface{}, 0, len(t.Header)+1)
	vars = append(vars, clause.Table{Name: table})
	for i, h := range t.Header {
		defs[i] = "? TEXT"
		vars = append(vars, clause.Column{Name: h})
	}
	if err := db.Exec("CREATE TABLE ? ("+strings.Join(defs, ", ")+")", vars...).Error; err != nil {
		return 0, fmt.Errorf("%s: create %s: %w", op, table, err)
	}

	if len(t.Rows) == 0 {
		im.logger.Warn(ctx, "csv has no data rows", logger.String("table", table))
		return 0, nil
	}

	batch := make([]map[string]interface{}, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]interface{}, len(t.Header))
		for i, h := range t.Header {
			if row[i] == nil {
				m[h] = nil
				continue
			}
			m[h] = *row[i]
		}
		batch = append(batch, m)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Table(table).CreateInBatches(batch, importBatchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("%s: insert: %w", op, err)
	}

	im.logger.Info(ctx, "csv imported",
		logger.String("table", table),
		logger.Int("rows", len(t.Rows)),
		logger.Int("columns", len(t.Header)),
	)
	return len(t.Rows), nil
}
