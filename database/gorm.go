package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sahilchouksey/campus-timeline/config"
	"github.com/sahilchouksey/campus-timeline/utils/logger"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// DocumentRow is the single table backing every collection: one JSONB body
// per (collection, doc_id).
type DocumentRow struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Collection string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_documents_collection_doc"`
	DocID      string         `gorm:"type:varchar(191);not null;uniqueIndex:idx_documents_collection_doc"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null"`
}

func (DocumentRow) TableName() string {
	return "documents"
}

type GORMStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM(env *config.EnvironmentVariable, log *logger.Logger) (*GORMStore, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.DB_HOST,
		env.DB_USER_NAME,
		env.DB_PASSWORD,
		env.DB_NAME,
		env.DB_PORT,
		env.DB_SSL_MODE,
	)
	return OpenGORM(dsn, env.GO_ENV == "production", log)
}

// OpenGORM connects using a raw DSN.
func OpenGORM(dsn string, quiet bool, log *logger.Logger) (*GORMStore, error) {
	if log == nil {
		log = logger.NewNop()
	}
	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if quiet {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		log.Error("unable to connect to postgres", "error", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to postgres")

	return NewGORMStore(db, log), nil
}

// NewGORMStore wraps an existing connection.
func NewGORMStore(db *gorm.DB, log *logger.Logger) *GORMStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &GORMStore{db: db, log: log.With("component", "gorm_store")}
}

// Init runs the AutoMigrate to create/update the documents table
func (s *GORMStore) Init() error {
	if err := s.db.AutoMigrate(&DocumentRow{}); err != nil {
		s.log.Error("auto-migrate failed", "error", err)
		return err
	}
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *GORMStore) Scan(ctx context.Context, collection string) ([]Document, error) {
	var rows []DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	return s.decodeRows(rows), nil
}

// FilterEqual compares the text value of a top-level JSON field.
func (s *GORMStore) FilterEqual(ctx context.Context, collection, field, value string) ([]Document, error) {
	var rows []DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Where(datatypes.JSONQuery("data").Equals(value, field)).
		Order("doc_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("filter %s.%s: %w", collection, field, err)
	}
	return s.decodeRows(rows), nil
}

func (s *GORMStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var row DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	doc, ok := decodeRow(row)
	if !ok {
		// An unreadable body is treated like a missing document.
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (s *GORMStore) GetMany(ctx context.Context, collection string, ids []string) ([]Document, error) {
	if len(ids) == 0 {
		return []Document{}, nil
	}
	var rows []DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ANY(?)", collection, pq.Array(ids)).
		Order("doc_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get many %s: %w", collection, err)
	}
	return s.decodeRows(rows), nil
}

func (s *GORMStore) Put(ctx context.Context, collection, id string, data Record) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	row := DocumentRow{Collection: collection, DocID: id, Data: datatypes.JSON(body)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
}

// decodeRows skips rows whose body is not a JSON object so one bad record
// never fails a whole read.
func (s *GORMStore) decodeRows(rows []DocumentRow) []Document {
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, ok := decodeRow(row)
		if !ok {
			s.log.Warn("skipping unreadable document", "collection", row.Collection, "id", row.DocID)
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

func decodeRow(row DocumentRow) (Document, bool) {
	var data Record
	if err := json.Unmarshal(row.Data, &data); err != nil || data == nil {
		return Document{}, false
	}
	return Document{ID: row.DocID, Data: data}, true
}
