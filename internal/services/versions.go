package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"iruka_console/internal/models"
	"iruka_console/internal/storage"
	"iruka_console/internal/storage/mariadb"

	"gorm.io/gorm"
)

// VersionService is a dumb persistence boundary for game versions.
// Status writes are unconditional: the legality of a transition is the
// lifecycle handlers' responsibility, so status and audit writes stay
// close together at one call site.
type VersionService struct {
	storage *mariadb.Storage
	log     *slog.Logger
}

func NewVersionService(s *mariadb.Storage, log *slog.Logger) *VersionService {
	return &VersionService{
		storage: s,
		log:     log,
	}
}

func (s *VersionService) Create(v *models.GameVersion) (*models.GameVersion, error) {
	const op = "services.versions.Create"

	if v.GameID <= 0 || v.Version == "" || v.StoragePath == "" {
		return nil, fmt.Errorf("%s: %w: game_id, version and storage_path are required", op, storage.ErrValidation)
	}
	if v.EntryFile == "" {
		v.EntryFile = "index.html"
	}
	if v.Status == "" {
		v.Status = models.StatusDraft
	}

	var existing models.GameVersion
	err := s.storage.DB.Where("game_id = ? AND version = ?", v.GameID, v.Version).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrDuplicateVersion)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	timeNow := time.Now()
	v.CreatedAt = &timeNow
	v.UpdatedAt = &timeNow

	if err := s.storage.DB.Create(v).Error; err != nil {
		// unique index on (game_id, version) backstops the pre-check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrDuplicateVersion)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return v, nil
}

func (s *VersionService) FindByID(id int64) (*models.GameVersion, error) {
	const op = "services.versions.FindByID"

	var v models.GameVersion
	err := s.storage.DB.Where("id = ? AND is_deleted = ?", id, false).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &v, nil
}

func (s *VersionService) FindByVersion(gameID int64, version string) (*models.GameVersion, error) {
	const op = "services.versions.FindByVersion"

	var v models.GameVersion
	err := s.storage.DB.Where("game_id = ? AND version = ? AND is_deleted = ?", gameID, version, false).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &v, nil
}

// UpdateStatus writes the status field unconditionally. Callers must run
// the transition through lifecycle.Transition first.
func (s *VersionService) UpdateStatus(id int64, status models.VersionStatus) error {
	const op = "services.versions.UpdateStatus"

	if err := s.storage.DB.Model(&models.GameVersion{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// PatchBuild refreshes size/submitter/timestamp on re-upload of an
// existing, not-yet-published version. Status is untouched.
func (s *VersionService) PatchBuild(id int64, buildSize int64, submittedBy int64) error {
	const op = "services.versions.PatchBuild"

	timeNow := time.Now()
	if err := s.storage.DB.Model(&models.GameVersion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"build_size":   buildSize,
			"submitted_at": timeNow,
			"submitted_by": submittedBy,
		}).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *VersionService) SetChecklist(id int64, checklist *models.SelfQAChecklist) error {
	const op = "services.versions.SetChecklist"

	if err := s.storage.DB.Model(&models.GameVersion{}).
		Where("id = ?", id).
		Updates(&models.GameVersion{SelfQA: checklist}).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *VersionService) SetReleaseNote(id int64, note string) error {
	const op = "services.versions.SetReleaseNote"

	if err := s.storage.DB.Model(&models.GameVersion{}).
		Where("id = ?", id).
		Update("release_note", note).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *VersionService) CountByGame(gameID int64) (int64, error) {
	const op = "services.versions.CountByGame"

	var count int64
	if err := s.storage.DB.Model(&models.GameVersion{}).
		Where("game_id = ?", gameID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (s *VersionService) ListByGame(gameID int64) ([]models.GameVersion, error) {
	const op = "services.versions.ListByGame"

	var results []models.GameVersion
	if err := s.storage.DB.
		Where("game_id = ? AND is_deleted = ?", gameID, false).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return results, nil
}

// ListDeleted is the explicit deleted-only query; the regular lookups
// never return soft-deleted rows.
func (s *VersionService) ListDeleted(gameID int64) ([]models.GameVersion, error) {
	const op = "services.versions.ListDeleted"

	var results []models.GameVersion
	if err := s.storage.DB.
		Where("game_id = ? AND is_deleted = ?", gameID, true).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return results, nil
}

func (s *VersionService) SoftDelete(id int64) error {
	const op = "services.versions.SoftDelete"

	res := s.storage.DB.Model(&models.GameVersion{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
