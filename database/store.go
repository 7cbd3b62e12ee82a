package database

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"collaborax/metrics"
	"collaborax/utils"
)

// DefaultKey is the blob key holding the serialized database.
const DefaultKey = "collaborax_db"

var (
	ErrNotInitialized = errors.New("store not initialized")
	ErrSchemaVersion  = errors.New("unsupported schema version")
)

// Store owns the in-memory relational database and its durable blob. The
// engine is an in-memory SQLite database pinned to a single connection; every
// Persist serializes the whole database and overwrites the blob.
type Store struct {
	db    *gorm.DB
	blobs BlobStore
	key   string
	log   *logrus.Entry

	mu          sync.Mutex
	initialized bool
	unsaved     atomic.Bool
}

// NewStore opens an empty engine. Call Initialize before use.
func NewStore(blobs BlobStore, key string) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if key == "" {
		key = DefaultKey
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}

	// A :memory: database lives and dies with its connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	return &Store{
		db:    db,
		blobs: blobs,
		key:   key,
		log:   logrus.WithField("component", "store"),
	}, nil
}

// Initialize restores the database from the durable blob, or creates and
// persists a fresh schema when no blob exists. Calls after the first success
// are no-ops.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	encoded, err := s.blobs.Get(ctx, s.key)
	switch {
	case errors.Is(err, ErrBlobNotFound):
		if err := s.createSchema(ctx); err != nil {
			return err
		}
		s.initialized = true
		s.log.Info("Created fresh database")
		// A failed first save is not fatal; the session runs unsaved.
		_ = s.persistLocked(ctx)
		return nil
	case err != nil:
		return fmt.Errorf("failed to read database blob: %w", err)
	}

	image, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return fmt.Errorf("failed to decode database blob: %w", err)
	}
	if err := s.restore(ctx, image); err != nil {
		return err
	}
	if err := s.checkVersion(ctx); err != nil {
		return err
	}

	s.initialized = true
	s.log.WithField("bytes", len(image)).Info("Restored database from blob")
	return nil
}

// Persist serializes the whole database and overwrites the durable blob. On
// failure the in-memory state is left as is and Unsaved reports true until a
// later save succeeds.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	image, err := s.serialize(ctx)
	if err == nil {
		encoded := base64.StdEncoding.EncodeToString(image)
		err = s.blobs.Put(ctx, s.key, []byte(encoded))
		if err == nil {
			s.unsaved.Store(false)
			metrics.RecordPersist(len(encoded), nil)
			return nil
		}
	}

	s.unsaved.Store(true)
	metrics.RecordPersist(0, err)
	utils.LogWarning("persist_failed", err, map[string]interface{}{
		"key": s.key,
	})
	return fmt.Errorf("failed to persist database: %w", err)
}

// Export returns a serialized image of the current database.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return s.serialize(ctx)
}

// DB returns the gorm handle bound to ctx.
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Initialized reports whether Initialize has succeeded.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Unsaved reports whether the last persist attempt failed.
func (s *Store) Unsaved() bool {
	return s.unsaved.Load()
}

// Close releases the engine. In-memory state not yet persisted is lost.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) createSchema(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(Tables()...); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := db.Create(&SchemaMeta{ID: 1, Version: SchemaVersion}).Error; err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}
	return nil
}

func (s *Store) checkVersion(ctx context.Context) error {
	var meta SchemaMeta
	if err := s.db.WithContext(ctx).First(&meta, 1).Error; err != nil {
		return fmt.Errorf("%w: missing version stamp: %v", ErrSchemaVersion, err)
	}
	if meta.Version != SchemaVersion {
		return fmt.Errorf("%w: blob has %d, want %d", ErrSchemaVersion, meta.Version, SchemaVersion)
	}
	return nil
}

func (s *Store) serialize(ctx context.Context) ([]byte, error) {
	var image []byte
	err := s.withConn(ctx, func(conn *sqlite3.SQLiteConn) error {
		var err error
		image, err = conn.Serialize("main")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize database: %w", err)
	}
	return image, nil
}

// restore loads image into a scratch connection and copies it page by page
// into the live connection with the backup API. A database deserialized in
// place cannot grow, a backed-up copy can.
func (s *Store) restore(ctx context.Context, image []byte) error {
	drv := &sqlite3.SQLiteDriver{}
	raw, err := drv.Open(":memory:")
	if err != nil {
		return fmt.Errorf("failed to open scratch database: %w", err)
	}
	scratch := raw.(*sqlite3.SQLiteConn)
	defer scratch.Close()

	if err := scratch.Deserialize(image, "main"); err != nil {
		return fmt.Errorf("failed to deserialize database: %w", err)
	}

	return s.withConn(ctx, func(conn *sqlite3.SQLiteConn) error {
		backup, err := conn.Backup("main", scratch, "main")
		if err != nil {
			return fmt.Errorf("failed to start restore: %w", err)
		}
		if _, err := backup.Step(-1); err != nil {
			backup.Finish()
			return fmt.Errorf("failed to restore database: %w", err)
		}
		return backup.Finish()
	})
}

func (s *Store) withConn(ctx context.Context, fn func(*sqlite3.SQLiteConn) error) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		return fn(c)
	})
}
