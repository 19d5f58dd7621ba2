package services

import (
	"fmt"
	"log/slog"
	"time"

	"iruka_console/internal/models"
	"iruka_console/internal/storage/mariadb"

	"github.com/google/uuid"
)

// AuditService appends audit and history entries. Writes are best-effort
// by contract: callers log a returned error and move on, they never roll
// back the state transition that triggered the write.
type AuditService struct {
	storage *mariadb.Storage
	log     *slog.Logger
}

func NewAuditService(s *mariadb.Storage, log *slog.Logger) *AuditService {
	return &AuditService{
		storage: s,
		log:     log,
	}
}

func (s *AuditService) Record(e *models.AuditEntry) error {
	const op = "services.audit.Record"

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	timeNow := time.Now()
	e.CreatedAt = &timeNow

	if err := s.storage.DB.Create(e).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *AuditService) AppendHistory(gameID, actor int64, message string) error {
	const op = "services.audit.AppendHistory"

	timeNow := time.Now()
	entry := &models.HistoryEntry{
		GameID:    gameID,
		Actor:     actor,
		Message:   message,
		CreatedAt: &timeNow,
	}

	if err := s.storage.DB.Create(entry).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *AuditService) ListByGame(gameID int64, limit int) ([]models.AuditEntry, error) {
	const op = "services.audit.ListByGame"

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var results []models.AuditEntry
	if err := s.storage.DB.
		Where("game_id = ?", gameID).
		Order("created_at desc").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return results, nil
}

func (s *AuditService) ListHistory(gameID int64, limit int) ([]models.HistoryEntry, error) {
	const op = "services.audit.ListHistory"

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var results []models.HistoryEntry
	if err := s.storage.DB.
		Where("game_id = ?", gameID).
		Order("created_at desc").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return results, nil
}
