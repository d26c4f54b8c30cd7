package store

import (
	"context"
	"database/sql"
	"time"

	"forum-tenant-sync/internal/errors"
	"forum-tenant-sync/internal/logging"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// SQLStore implements Store on top of database/sql with the MySQL driver.
type SQLStore struct {
	db           *sql.DB
	logger       *logging.Logger
	queryTimeout time.Duration
	retryHandler *errors.RetryHandler
}

// NewSQLStore wraps an existing database handle. Used by tests with sqlmock
// and by callers that manage the connection themselves.
func NewSQLStore(db *sql.DB, logger *logging.Logger) *SQLStore {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLStore{
		db:           db,
		logger:       logger,
		queryTimeout: 30 * time.Second,
		retryHandler: errors.NewDefaultRetryHandler(),
	}
}

// Connect establishes a connection to the tenant store with retry logic
func Connect(config Config, logger *logging.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeValidation, "invalid store configuration", err)
	}

	startTime := time.Now()

	logger.WithFields(map[string]interface{}{
		"host":     config.Host,
		"database": config.Database,
		"port":     config.Port,
	}).Info("Attempting tenant store connection")

	ctx, cancel := errors.CreateContextWithTimeout(config.Timeout)
	defer cancel()

	retryHandler := errors.NewDefaultRetryHandler()

	var db *sql.DB
	err := retryHandler.Retry(ctx, func() error {
		var connectErr error

		db, connectErr = sql.Open("mysql", config.DSN())
		if connectErr != nil {
			return errors.WrapError(connectErr, "failed to open store connection")
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, pingCancel := context.WithTimeout(ctx, config.Timeout)
		defer pingCancel()
		if pingErr := db.PingContext(pingCtx); pingErr != nil {
			db.Close()
			return errors.WrapError(pingErr, "failed to ping tenant store")
		}

		return nil
	})

	duration := time.Since(startTime)
	logger.LogStoreConnection(config.Host, config.Database, err == nil, duration, err)

	if err != nil {
		return nil, err
	}

	return &SQLStore{
		db:           db,
		logger:       logger,
		queryTimeout: config.Timeout,
		retryHandler: retryHandler,
	}, nil
}

// Close gracefully closes the store connection
func (s *SQLStore) Close() error {
	if s.db == nil {
		s.logger.Debug("Store connection is nil, nothing to close")
		return nil
	}

	s.logger.Debug("Closing tenant store connection")
	if err := s.db.Close(); err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to close store connection")
		return errors.WrapError(err, "failed to close store connection")
	}

	return nil
}

// Ping verifies that the store connection is working
func (s *SQLStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.NewAppError(errors.ErrorTypeValidation, "store connection is nil", nil)
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.db.PingContext(pingCtx); err != nil {
		return errors.WrapError(err, "failed to ping tenant store")
	}

	return nil
}

// withTimeout derives the per-query context used by all SQL helpers
func (s *SQLStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}
