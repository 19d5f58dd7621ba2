package services

import (
	"fmt"
	"log/slog"
	"time"

	"iruka_console/internal/lifecycle"
	"iruka_console/internal/models"
	"iruka_console/internal/storage"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// LifecycleService owns the guarded transitions of a game's latest
// version: submit for QC, approve/reject, publish. Every transition is
// checked against lifecycle.Transition before the unconditional status
// write, then audit and history entries are appended best-effort.
type LifecycleService struct {
	games    *GameService
	versions *VersionService
	audit    *AuditService
	log      *slog.Logger
}

func NewLifecycleService(
	games *GameService,
	versions *VersionService,
	audit *AuditService,
	log *slog.Logger,
) *LifecycleService {
	return &LifecycleService{
		games:    games,
		versions: versions,
		audit:    audit,
		log:      log,
	}
}

// SubmitForQC moves the latest version from draft to uploaded. The owner
// must attest the full self-QA checklist first; the release note travels
// with the submission and is shown to the QC reviewer.
func (s *LifecycleService) SubmitForQC(actor Actor, ref GameRef, checklist *models.SelfQAChecklist, releaseNote string) (*models.GameVersion, error) {
	const op = "services.lifecycle.SubmitForQC"

	game, version, err := s.resolveLatest(ref)
	if err != nil {
		return nil, err
	}
	if game.OwnerID != actor.UserID && !actor.IsAdmin {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrForbidden)
	}
	if !checklist.Complete() {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrChecklistIncomplete)
	}

	next, err := lifecycle.Transition(version.Status, lifecycle.ActionSubmitQC)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.versions.SetChecklist(version.ID, checklist); err != nil {
		return nil, err
	}
	if releaseNote != "" {
		if err := s.versions.SetReleaseNote(version.ID, releaseNote); err != nil {
			return nil, err
		}
	}
	if err := s.versions.UpdateStatus(version.ID, next); err != nil {
		return nil, err
	}

	s.recordSideEffects(actor, game, version, string(lifecycle.ActionSubmitQC), version.Status, next, checklist.Note)

	return s.versions.FindByID(version.ID)
}

// Decide approves or rejects the latest version. Versions already
// published or archived hard-reject either decision.
func (s *LifecycleService) Decide(actor Actor, ref GameRef, decision Decision, notes string) (*models.GameVersion, error) {
	const op = "services.lifecycle.Decide"

	if !actor.IsAdmin {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrForbidden)
	}

	var action lifecycle.Action
	switch decision {
	case DecisionApprove:
		action = lifecycle.ActionApprove
	case DecisionReject:
		action = lifecycle.ActionReject
	default:
		return nil, fmt.Errorf("%s: %w: unknown decision %q", op, storage.ErrValidation, decision)
	}

	game, version, err := s.resolveLatest(ref)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.Transition(version.Status, action)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.versions.UpdateStatus(version.ID, next); err != nil {
		return nil, err
	}

	s.recordSideEffects(actor, game, version, string(action), version.Status, next, notes)

	return s.versions.FindByID(version.ID)
}

// Publish moves an approved latest version live: status becomes
// published and the game's live pointer is overwritten. The previously
// live version keeps its published status.
func (s *LifecycleService) Publish(actor Actor, ref GameRef) (*models.GameVersion, error) {
	const op = "services.lifecycle.Publish"

	if !actor.IsAdmin {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrForbidden)
	}

	game, version, err := s.resolveLatest(ref)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.Transition(version.Status, lifecycle.ActionPublish)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.versions.UpdateStatus(version.ID, next); err != nil {
		return nil, err
	}
	if err := s.games.UpdateLiveVersion(game.ID, version.ID, time.Now()); err != nil {
		return nil, err
	}

	s.recordSideEffects(actor, game, version, string(lifecycle.ActionPublish), version.Status, next, "")

	return s.versions.FindByID(version.ID)
}

func (s *LifecycleService) resolveLatest(ref GameRef) (*models.Game, *models.GameVersion, error) {
	const op = "services.lifecycle.resolveLatest"

	game, err := s.games.Resolve(ref)
	if err != nil {
		return nil, nil, err
	}
	if game.LatestVersionID == nil {
		return nil, nil, fmt.Errorf("%s: no version to act on: %w", op, storage.ErrInvalidState)
	}

	version, err := s.versions.FindByID(*game.LatestVersionID)
	if err != nil {
		return nil, nil, err
	}

	return game, version, nil
}

// recordSideEffects appends the audit entry and the history line. These
// are best-effort by contract: failures are logged, never rolled back.
func (s *LifecycleService) recordSideEffects(actor Actor, game *models.Game, version *models.GameVersion, action string, from, to models.VersionStatus, notes string) {
	entry := &models.AuditEntry{
		Actor:      actor.UserID,
		Action:     action,
		GameID:     game.ID,
		VersionID:  version.ID,
		FromStatus: from,
		ToStatus:   to,
		Notes:      notes,
	}
	if err := s.audit.Record(entry); err != nil {
		s.log.Warn(
			"audit write failed",
			slog.String("game", game.GameID),
			slog.String("action", action),
			slog.String("error", err.Error()))
	}

	message := fmt.Sprintf("version %s: %s (%s -> %s)", version.Version, action, from, to)
	if err := s.audit.AppendHistory(game.ID, actor.UserID, message); err != nil {
		s.log.Warn(
			"history write failed",
			slog.String("game", game.GameID),
			slog.String("action", action),
			slog.String("error", err.Error()))
	}
}
