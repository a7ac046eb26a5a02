// Package source reads raw feedback rows from the configured data store.
//
// Conventions:
//   - Every value is surfaced as nullable text; parsing belongs to the reload pipeline.
//   - Rows are returned in the order the store yields them.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/pulse/internal/domain/model"
)

// Supported driver names.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverCSV      = "csv"
)

// DefaultTable is the table the importer writes and the gorm source reads.
const DefaultTable = "sentiment_reports"

// Source yields every feedback row currently held by the data store.
type Source interface {
	FetchAll(ctx context.Context) ([]model.RawRow, error)
}

// Columns names the source columns mapped onto a RawRow.
type Columns struct {
	EmployeeID      string
	EmployeeName    string
	Content         string
	ContentFallback string
	Role            string
	Sentiment       string
}

// DefaultColumns returns the column names used by the sentiment_reports table.
func DefaultColumns() Columns {
	return Columns{
		EmployeeID:      "employee_id",
		EmployeeName:    "employee_name",
		Content:         "full_analysis",
		ContentFallback: "comment",
		Role:            "employee_role",
		Sentiment:       "positive_percentage",
	}
}

// Config selects and configures a Source.
type Config struct {
	Driver  string
	DSN     string
	Table   string
	CSVPath string
	Columns Columns

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Open builds the Source described by cfg. The returned closer releases any
// connection pool and is never nil.
func Open(ctx context.Context, cfg Config, opts ...Option) (Source, func() error, error) {
	const op = "source.open"
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverCSV:
		if cfg.CSVPath == "" {
			return nil, nil, fmt.Errorf("%s: csv driver needs a file path: %w", op, ErrInvalidConfig)
		}
		return NewFileSource(cfg.CSVPath, cfg.Columns), func() error { return nil }, nil
	case DriverMySQL, DriverPostgres, DriverSQLite:
		db, err := OpenDB(ctx, cfg, opts...)
		if err != nil {
			return nil, nil, err
		}
		src := NewGormSource(db, cfg.Table, cfg.Columns)
		return src, src.Close, nil
	default:
		return nil, nil, fmt.Errorf("%s: unknown driver %q: %w", op, cfg.Driver, ErrInvalidConfig)
	}
}

// rowMapper turns name-addressed values into RawRows. Lookups are
// case-insensitive because some databases fold identifier case.
type rowMapper struct {
	cols Columns
}

func (m rowMapper) row(get func(name string) (*string, bool)) model.RawRow {
	content, ok := get(m.cols.Content)
	if (!ok || content == nil) && m.cols.ContentFallback != "" {
		content, _ = get(m.cols.ContentFallback)
	}
	id, _ := get(m.cols.EmployeeID)
	name, _ := get(m.cols.EmployeeName)
	role, _ := get(m.cols.Role)
	sentiment, _ := get(m.cols.Sentiment)
	return model.RawRow{
		EmployeeID:   id,
		EmployeeName: name,
		Content:      content,
		Role:         role,
		Sentiment:    sentiment,
	}
}

func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.EmployeeID == "" {
		c.EmployeeID = d.EmployeeID
	}
	if c.EmployeeName == "" {
		c.EmployeeName = d.EmployeeName
	}
	if c.Content == "" {
		c.Content = d.Content
		if c.ContentFallback == "" {
			c.ContentFallback = d.ContentFallback
		}
	}
	if c.Role == "" {
		c.Role = d.Role
	}
	if c.Sentiment == "" {
		c.Sentiment = d.Sentiment
	}
	return c
}
