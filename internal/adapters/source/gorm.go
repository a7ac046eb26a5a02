package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connection pool defaults.
const (
	defaultMaxIdleConns    = 10
	defaultMaxOpenConns    = 100
	defaultConnMaxLifetime = time.Hour
	slowQueryThreshold     = time.Second
)

// gormWriter forwards gorm's trace output to the service logger.
type gormWriter struct {
	log logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Debug(context.Background(), fmt.Sprintf(format, args...))
}

func newGormLogger(l logger.Logger) gormlogger.Interface {
	return gormlogger.New(gormWriter{log: l}, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  false,
	})
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unknown driver %q: %w", driver, ErrInvalidConfig)
	}
}

// OpenDB opens a pooled gorm connection for a SQL driver and verifies it with a ping.
func OpenDB(ctx context.Context, cfg Config, opts ...Option) (*gorm.DB, error) {
	const op = "source.open_db"
	o := buildOptions(opts)

	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%s: empty dsn: %w", op, ErrInvalidConfig)
	}
	d, err := dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db, err := gorm.Open(d, &gorm.Config{Logger: newGormLogger(o.logger)})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sqlDB.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, defaultMaxIdleConns))
	sqlDB.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, defaultMaxOpenConns))
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}
	sqlDB.SetConnMaxLifetime(lifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}
	o.logger.Info(ctx, "database connected", logger.String("driver", cfg.Driver))
	return db, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// GormSource reads every row of one table.
type GormSource struct {
	db     *gorm.DB
	table  string
	mapper rowMapper
}

// NewGormSource reads table through db using cols. Empty values fall back to defaults.
func NewGormSource(db *gorm.DB, table string, cols Columns) *GormSource {
	if table == "" {
		table = DefaultTable
	}
	return &GormSource{db: db, table: table, mapper: rowMapper{cols: cols.withDefaults()}}
}

// FetchAll implements Source.
func (s *GormSource) FetchAll(ctx context.Context) ([]model.RawRow, error) {
	const op = "source.gorm.fetch_all"
	var rows []map[string]interface{}
	if err := s.db.WithContext(ctx).Table(s.table).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]model.RawRow, 0, len(rows))
	for _, r := range rows {
		folded := make(map[string]interface{}, len(r))
		for k, v := range r {
			folded[strings.ToLower(k)] = v
		}
		out = append(out, s.mapper.row(func(name string) (*string, bool) {
			v, ok := folded[strings.ToLower(name)]
			if !ok {
				return nil, false
			}
			return toText(v), true
		}))
	}
	return out, nil
}

// Close releases the connection pool.
func (s *GormSource) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// toText renders a scanned column value as text; NULL stays nil.
func toText(v interface{}) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case []byte:
		s = string(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		s = t.Format(time.RFC3339)
	default:
		s = fmt.Sprint(t)
	}
	return &s
}
