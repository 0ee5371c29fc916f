package storage

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	config "github.com/plugfox/helpdesk-server/internal/config"
	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/model"
	storage_logger "github.com/plugfox/helpdesk-server/internal/storage/storage_logger"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Storage struct {
	db  *gorm.DB
	now func() time.Time
}

type options struct {
	now              func() time.Time
	singleConnection bool
	skipMigrations   bool
}

// Option configures Open.
type Option func(*options)

// WithClock overrides the time source used for every timestamp written by the storage.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithSingleConnection limits the pool to one connection.
// SQLite allows a single writer, so transactions queue on the pool instead of
// failing with "database is locked".
func WithSingleConnection() Option {
	return func(o *options) {
		o.singleConnection = true
	}
}

// WithoutMigrations skips AutoMigrate, the schema is expected to exist.
func WithoutMigrations() Option {
	return func(o *options) {
		o.skipMigrations = true
	}
}

// New opens the database described by the config and migrates the schema.
func New(config *config.Config, logger *slog.Logger, opts ...Option) (*Storage, error) {
	dialector, err := createDialector(&config.Database)
	if err != nil {
		return nil, err
	}

	if isSQLite(config.Database.Driver) {
		opts = append([]Option{WithSingleConnection()}, opts...)
	}

	return Open(dialector, logger, opts...)
}

// Open opens the storage on top of an already built dialector.
func Open(dialector gorm.Dialector, logger *slog.Logger, opts ...Option) (*Storage, error) {
	o := &options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(o)
	}

	db, err := gorm.Open(
		dialector,
		&gorm.Config{
			NamingStrategy: schema.NamingStrategy{},
			Logger:         storage_logger.NewGormSlogLogger(logger),
			NowFunc:        func() time.Time { return o.now().UTC() },
			TranslateError: true,
		})
	if err != nil {
		return nil, err
	}

	if o.singleConnection {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if !o.skipMigrations {
		const timeout = 15 * time.Minute
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := db.WithContext(ctx).AutoMigrate(
			&model.User{},
			&model.Ticket{},
			&model.Message{},
			&model.Report{},
			&model.BannedUser{},
			&model.ModeratorStats{},
			&model.ModeratorRating{},
			&model.CaptchaSession{},
		); err != nil {
			return nil, err
		}
	}

	return &Storage{db: db, now: func() time.Time { return o.now().UTC() }}, nil
}

// Close - close the database connection
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping - check the database connection
func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Now returns the storage clock, the same one used for written timestamps.
func (s *Storage) Now() time.Time {
	return s.now()
}

// transaction runs fn in a single transaction, rolled back on any error.
// Failures not classified by fn are reported as store errors.
func (s *Storage) transaction(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	return apperr.Store(op, s.db.WithContext(ctx).Transaction(fn))
}

func isSQLite(driver string) bool {
	return strings.HasPrefix(strings.ToLower(driver), "sqlite")
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicatedKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
