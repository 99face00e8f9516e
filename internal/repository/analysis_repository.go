package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-lingualens/pkg/models"
)

// ErrAnalysisNotFound indicates a requested analysis row does not exist.
var ErrAnalysisNotFound = errors.New("analysis record not found")

// AnalysisRow is the persisted form of one pipeline run.
type AnalysisRow struct {
	ID              uint      `gorm:"primaryKey"`
	Filename        string    `gorm:"size:255;not null"`
	ExtractedText   string    `gorm:"type:text"`
	ObjectsJSON     string    `gorm:"column:objects_json;type:text"`
	Description     string    `gorm:"type:text"`
	OCREngine       string    `gorm:"column:ocr_engine;size:64"`
	DetectionEngine string    `gorm:"size:64"`
	ProcessingTime  float64   `gorm:"column:processing_time_seconds"`
	Language        string    `gorm:"size:64"`
	Confidence      float64   ``
	AnalysisType    string    `gorm:"size:32;index"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index"`
}

// TableName keeps the table name the rest of the application expects.
func (AnalysisRow) TableName() string {
	return "image_analyses"
}

// AnalysisRepository is the persistence collaborator the pipeline writes
// to. Writes are fire-and-forget from the pipeline's perspective; callers
// own timeouts and error logging.
type AnalysisRepository interface {
	SaveAnalysis(ctx context.Context, filename, language string, record models.AnalysisRecord) error
	RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRow, error)
}

// MySQLAnalysisRepository implements AnalysisRepository on MySQL via gorm.
type MySQLAnalysisRepository struct {
	db *gorm.DB
}

// NewMySQLAnalysisRepository opens the database and migrates the analysis
// table.
func NewMySQLAnalysisRepository(dsn string) (*MySQLAnalysisRepository, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&AnalysisRow{}); err != nil {
		return nil, err
	}
	return &MySQLAnalysisRepository{db: db}, nil
}

// SaveAnalysis writes one analysis record.
func (r *MySQLAnalysisRepository) SaveAnalysis(ctx context.Context, filename, language string, record models.AnalysisRecord) error {
	objectsJSON, err := json.Marshal(record.Objects.Objects)
	if err != nil {
		objectsJSON = []byte("[]")
	}

	row := AnalysisRow{
		Filename:        filename,
		ExtractedText:   record.OCR.Text,
		ObjectsJSON:     string(objectsJSON),
		Description:     record.Objects.Description,
		OCREngine:       record.OCR.EngineUsed,
		DetectionEngine: string(record.Objects.EngineUsed),
		ProcessingTime:  record.ProcessingTimeSeconds,
		Language:        language,
		Confidence:      record.OCR.Confidence,
		AnalysisType:    string(record.AnalysisType),
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// RecentAnalyses returns the newest analysis rows, newest first.
func (r *MySQLAnalysisRepository) RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []AnalysisRow
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
