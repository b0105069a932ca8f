package app

import (
	"context"
	"fmt"
	"time"

	"grandeva/store-api/db"
	"grandeva/store-api/internal"
	"grandeva/store-api/internal/service"
	"grandeva/store-api/pkg/security"
	"grandeva/store-api/storage"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

// New connects to the database and the blob store and builds the services on
// top of them
func New(ctx context.Context) (*internal.Deps, error) {
	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	store, err := storage.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store, %w", err)
	}

	return NewDeps(conn, store), nil
}

// NewDeps builds the services from already opened connections
func NewDeps(conn *gorm.DB, store storage.Store) *internal.Deps {
	return &internal.Deps{
		DB:           conn,
		Store:        store,
		Identity:     service.NewIdentity(conn, security.New(), security.NewSessionSigner()),
		Catalog:      service.NewCatalog(conn, store, service.NewUploader(store, service.NewImageProcessor())),
		Interactions: service.NewInteractions(conn),
	}
}

// MakeLogger replaces the global zap logger with a coloured development
// logger at the configured level
func MakeLogger() error {
	level, err := zapcore.ParseLevel(viper.GetString("app.log_level"))
	if err != nil {
		return fmt.Errorf("failed to parse log level, %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger, %w", err)
	}

	zap.ReplaceGlobals(log)
	return nil
}
