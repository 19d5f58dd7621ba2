package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"iruka_console/internal/gateway"
	"iruka_console/internal/models"
	"iruka_console/internal/storage"
	"iruka_console/internal/storage/objstore"

	"golang.org/x/mod/semver"
)

const storagePathRoot = "games"

// UploadService coordinates the two upload paths: small files posted
// straight to the server, and large files written by the client through a
// signed URL followed by a completion call. Either way the archive ends
// up at games/<slug>/<version>/<fileName> and is extracted in place.
type UploadService struct {
	games    *GameService
	versions *VersionService
	gateway  *gateway.Gateway
	store    objstore.Store
	ttl      time.Duration
	log      *slog.Logger
}

func NewUploadService(
	games *GameService,
	versions *VersionService,
	gw *gateway.Gateway,
	store objstore.Store,
	ttl time.Duration,
	log *slog.Logger,
) *UploadService {
	return &UploadService{
		games:    games,
		versions: versions,
		gateway:  gw,
		store:    store,
		ttl:      ttl,
		log:      log,
	}
}

type UploadSlot struct {
	UploadURL   string `json:"upload_url"`
	StoragePath string `json:"storage_path"`
}

// RequestUploadSlot issues a time-limited signed PUT URL scoped to the
// exact archive key. The signed URL alone does not authorize completion;
// ownership is re-checked there (defense in depth).
func (s *UploadService) RequestUploadSlot(ctx context.Context, actor Actor, ref GameRef, version, fileName string) (*UploadSlot, error) {
	const op = "services.uploads.RequestUploadSlot"

	if err := validateUpload(version, fileName); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	game, err := s.games.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, game); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	storagePath := buildStoragePath(game.GameID, version)
	uploadURL, err := s.store.SignedPutURL(ctx, path.Join(storagePath, fileName), s.ttl)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &UploadSlot{
		UploadURL:   uploadURL,
		StoragePath: storagePath,
	}, nil
}

// UploadDirect is the small-file path: the server buffers the archive
// bytes, writes the object itself and runs the completion logic.
func (s *UploadService) UploadDirect(ctx context.Context, actor Actor, ref GameRef, version, fileName string, data []byte) (*models.GameVersion, error) {
	const op = "services.uploads.UploadDirect"

	if err := validateUpload(version, fileName); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w: empty archive", op, storage.ErrValidation)
	}

	game, err := s.games.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, game); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	storagePath := buildStoragePath(game.GameID, version)
	if err := s.store.Put(ctx, path.Join(storagePath, fileName), data, "application/zip"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.finishUpload(ctx, actor, game, version, storagePath, fileName)
}

// CompleteUpload is called by the client after a direct-to-storage write
// through the signed URL.
func (s *UploadService) CompleteUpload(ctx context.Context, actor Actor, ref GameRef, version, storagePath, fileName string, fileSize int64) (*models.GameVersion, error) {
	const op = "services.uploads.CompleteUpload"

	if err := validateUpload(version, fileName); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	game, err := s.games.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, game); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// the games/<slug>/<version> layout is load-bearing: play URLs are
	// derived from it, so a client-supplied path must match exactly
	if want := buildStoragePath(game.GameID, version); storagePath != want {
		return nil, fmt.Errorf("%s: %w: storage path must be %s", op, storage.ErrValidation, want)
	}

	s.log.Info(
		"completing upload",
		slog.String("game", game.GameID),
		slog.String("version", version),
		slog.Int64("file_size", fileSize))

	return s.finishUpload(ctx, actor, game, version, storagePath, fileName)
}

// finishUpload extracts the archive and persists the version row. When
// extraction fails on a game that has never had a successful version, the
// speculatively created game row is rolled back so no game outlives a
// failed first upload.
func (s *UploadService) finishUpload(ctx context.Context, actor Actor, game *models.Game, version, storagePath, fileName string) (*models.GameVersion, error) {
	const op = "services.uploads.finishUpload"

	existing, err := s.versions.FindByVersion(game.ID, version)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == models.StatusPublished {
		return nil, fmt.Errorf("%s: cannot re-upload version with status: %s: %w", op, existing.Status, storage.ErrInvalidState)
	}

	result, err := s.gateway.ExtractZip(ctx, storagePath, fileName)
	if err != nil {
		if existing == nil {
			s.rollbackFirstUpload(game)
		}
		return nil, err
	}

	if existing != nil {
		if err := s.versions.PatchBuild(existing.ID, result.TotalSize, actor.UserID); err != nil {
			return nil, err
		}
		// a rejected build re-enters review as a draft; every other
		// status is left for the lifecycle handlers
		if existing.Status == models.StatusQCFailed {
			if err := s.versions.UpdateStatus(existing.ID, models.StatusDraft); err != nil {
				return nil, err
			}
		}
		return s.versions.FindByID(existing.ID)
	}

	timeNow := time.Now()
	created, err := s.versions.Create(&models.GameVersion{
		GameID:      game.ID,
		Version:     version,
		StoragePath: storagePath,
		EntryFile:   result.EntryFile,
		EntryTitle:  result.EntryTitle,
		BuildSize:   result.TotalSize,
		Status:      models.StatusDraft,
		SubmittedBy: actor.UserID,
		SubmittedAt: &timeNow,
	})
	if errors.Is(err, storage.ErrDuplicateVersion) {
		// concurrent upload of the same version raced us; fall back to
		// the patch path against whichever insert won
		winner, ferr := s.versions.FindByVersion(game.ID, version)
		if ferr != nil {
			return nil, err
		}
		if perr := s.versions.PatchBuild(winner.ID, result.TotalSize, actor.UserID); perr != nil {
			return nil, perr
		}
		return s.versions.FindByID(winner.ID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.games.UpdateLatestVersion(game.ID, created.ID); err != nil {
		return nil, err
	}

	return created, nil
}

// rollbackFirstUpload hard-deletes a game that still has zero version
// rows. The game record is created before the artifact materializes, and
// must not survive if it never does.
func (s *UploadService) rollbackFirstUpload(game *models.Game) {
	count, err := s.versions.CountByGame(game.ID)
	if err != nil {
		s.log.Error(
			"rollback check failed",
			slog.String("game", game.GameID),
			slog.String("error", err.Error()))
		return
	}
	if count > 0 {
		return
	}

	if err := s.games.Delete(game.ID); err != nil {
		s.log.Error(
			"rollback of game record failed",
			slog.String("game", game.GameID),
			slog.String("error", err.Error()))
		return
	}

	s.log.Info("rolled back game after failed first upload", slog.String("game", game.GameID))
}

func validateUpload(version, fileName string) error {
	if !semver.IsValid("v" + version) {
		return fmt.Errorf("%w: version %q is not valid semver", storage.ErrValidation, version)
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".zip") {
		return fmt.Errorf("%w: file name must end in .zip", storage.ErrValidation)
	}
	if fileName != path.Base(fileName) {
		return fmt.Errorf("%w: file name must not contain path separators", storage.ErrValidation)
	}
	return nil
}

func requireOwner(actor Actor, game *models.Game) error {
	if game.OwnerID != actor.UserID && !actor.IsAdmin {
		return storage.ErrForbidden
	}
	return nil
}

func buildStoragePath(slug, version string) string {
	return path.Join(storagePathRoot, slug, version)
}
