package services

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"iruka_console/internal/models"
	"iruka_console/internal/storage"
	"iruka_console/internal/storage/mariadb"

	"gorm.io/gorm"
)

// Actor is the resolved identity the auth middleware hands to the core.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// GameRef addresses a game either by surrogate id or by slug. Resolution
// order is documented and fixed: a numeric reference is always an id,
// never a slug (slugs are com.iruka.* and cannot be numeric).
type GameRef struct {
	ID   int64
	Slug string
}

func ParseGameRef(raw string) GameRef {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
		return GameRef{ID: id}
	}
	return GameRef{Slug: raw}
}

var slugRe = regexp.MustCompile(`^com\.iruka\.[a-z0-9]+(?:-[a-z0-9]+)*$`)

type GameService struct {
	storage *mariadb.Storage
	log     *slog.Logger
}

func NewGameService(s *mariadb.Storage, log *slog.Logger) *GameService {
	return &GameService{
		storage: s,
		log:     log,
	}
}

func (s *GameService) Create(g *models.Game) (*models.Game, error) {
	const op = "services.games.Create"

	if !slugRe.MatchString(g.GameID) {
		return nil, fmt.Errorf("%s: %w: game_id must match com.iruka.<kebab-slug>", op, storage.ErrValidation)
	}
	if g.Title == "" {
		return nil, fmt.Errorf("%s: %w: title is required", op, storage.ErrValidation)
	}
	if g.OwnerID <= 0 {
		return nil, fmt.Errorf("%s: %w: owner is required", op, storage.ErrValidation)
	}

	var existing models.Game
	err := s.storage.DB.Where("game_id = ?", g.GameID).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrExists)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	timeNow := time.Now()
	g.RolloutPercentage = 100
	g.CreatedAt = &timeNow
	g.UpdatedAt = &timeNow

	if err := s.storage.DB.Create(g).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return g, nil
}

func (s *GameService) GetByID(id int64) (*models.Game, error) {
	const op = "services.games.GetByID"

	var g models.Game
	err := s.storage.DB.Where("id = ? AND is_deleted = ?", id, false).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &g, nil
}

func (s *GameService) GetBySlug(slug string) (*models.Game, error) {
	const op = "services.games.GetBySlug"

	var g models.Game
	err := s.storage.DB.Where("game_id = ? AND is_deleted = ?", slug, false).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &g, nil
}

func (s *GameService) Resolve(ref GameRef) (*models.Game, error) {
	if ref.ID != 0 {
		return s.GetByID(ref.ID)
	}
	return s.GetBySlug(ref.Slug)
}

// UpdateLatestVersion is a narrow single-field pointer write, kept apart
// from general updates so call sites say which invariant they maintain.
func (s *GameService) UpdateLatestVersion(gameID, versionID int64) error {
	const op = "services.games.UpdateLatestVersion"

	if err := s.storage.DB.Model(&models.Game{}).
		Where("id = ?", gameID).
		Update("latest_version_id", versionID).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateLiveVersion flips the live pointer and stamps published_at. The
// pointer is a full overwrite: only one version is live per game.
func (s *GameService) UpdateLiveVersion(gameID, versionID int64, publishedAt time.Time) error {
	const op = "services.games.UpdateLiveVersion"

	if err := s.storage.DB.Model(&models.Game{}).
		Where("id = ?", gameID).
		Updates(map[string]interface{}{
			"live_version_id": versionID,
			"published_at":    publishedAt,
		}).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Delete hard-deletes a game row. Only the upload-rollback path uses it;
// user-facing deletion goes through SoftDelete.
func (s *GameService) Delete(id int64) error {
	const op = "services.games.Delete"

	if err := s.storage.DB.Delete(&models.Game{}, id).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *GameService) SoftDelete(id int64) error {
	const op = "services.games.SoftDelete"

	res := s.storage.DB.Model(&models.Game{}).
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

func (s *GameService) Restore(id int64) error {
	const op = "services.games.Restore"

	res := s.storage.DB.Model(&models.Game{}).
		Where("id = ? AND is_deleted = ?", id, true).
		Update("is_deleted", false)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func (s *GameService) List(page, pageSize int) ([]models.Game, int, error) {
	const op = "services.games.List"

	var (
		results []models.Game
		count   int64
	)

	offset := (page - 1) * pageSize

	db := s.storage.DB.Model(&models.Game{}).Where("is_deleted = ?", false)

	if err := db.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.
		Order("created_at desc").
		Offset(offset).
		Limit(pageSize).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return results, int(count), nil
}
