package services

import (
	"regexp"
	"testing"

	"iruka_console/internal/models"
	"iruka_console/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLifecycleService(t *testing.T) (*LifecycleService, sqlmock.Sqlmock) {
	t.Helper()

	store, mock := setupMockDB(t)
	t.Cleanup(func() { store.Close() })

	log := newTestLogger()
	games := NewGameService(store, log)
	versions := NewVersionService(store, log)
	audit := NewAuditService(store, log)

	return NewLifecycleService(games, versions, audit, log), mock
}

func expectGameWithLatest(mock sqlmock.Sqlmock, latestVersionID interface{}) {
	rows := sqlmock.NewRows([]string{"id", "game_id", "owner_id", "latest_version_id"}).
		AddRow(3, "com.iruka.counting", 7, latestVersionID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `games` WHERE id = ? AND is_deleted = ? ORDER BY `games`.`id` LIMIT ?")).
		WithArgs(3, false, 1).
		WillReturnRows(rows)
}

func expectVersionByID(mock sqlmock.Sqlmock, status models.VersionStatus) {
	rows := sqlmock.NewRows([]string{"id", "game_id", "version", "status"}).
		AddRow(12, 3, "1.0.0", string(status))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `game_versions` WHERE id = ? AND is_deleted = ? ORDER BY `game_versions`.`id` LIMIT ?")).
		WithArgs(12, false, 1).
		WillReturnRows(rows)
}

func expectSideEffects(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `audit_entries`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `history_entries`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func completeChecklist() *models.SelfQAChecklist {
	return &models.SelfQAChecklist{
		Playable:        true,
		AssetsLoad:      true,
		ContentAccurate: true,
		AudioWorks:      true,
		Note:            "verified on tablet and desktop",
	}
}

func TestSubmitForQC(t *testing.T) {
	t.Run("draft moves to uploaded", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		expectGameWithLatest(mock, 12)
		expectVersionByID(mock, models.StatusDraft)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `game_versions` SET `self_qa`=?")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `game_versions` SET `release_note`=?")).
			WithArgs("adds level 3", sqlmock.AnyArg(), 12).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `game_versions` SET `status`=?")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		expectSideEffects(mock)
		expectVersionByID(mock, models.StatusUploaded)

		v, err := service.SubmitForQC(Actor{UserID: 7}, GameRef{ID: 3}, completeChecklist(), "adds level 3")

		require.NoError(t, err)
		assert.Equal(t, models.StatusUploaded, v.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("incomplete checklist", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		expectGameWithLatest(mock, 12)
		expectVersionByID(mock, models.StatusDraft)

		checklist := completeChecklist()
		checklist.AudioWorks = false

		_, err := service.SubmitForQC(Actor{UserID: 7}, GameRef{ID: 3}, checklist, "")

		assert.ErrorIs(t, err, storage.ErrChecklistIncomplete)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not owner", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		expectGameWithLatest(mock, 12)
		expectVersionByID(mock, models.StatusDraft)

		_, err := service.SubmitForQC(Actor{UserID: 99}, GameRef{ID: 3}, completeChecklist(), "")

		assert.ErrorIs(t, err, storage.ErrForbidden)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no version yet", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		expectGameWithLatest(mock, nil)

		_, err := service.SubmitForQC(Actor{UserID: 7}, GameRef{ID: 3}, completeChecklist(), "")

		assert.ErrorIs(t, err, storage.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDecide(t *testing.T) {
	t.Run("approve from uploaded", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		expectGameWithLatest(mock, 12)
		expectVersionByID(mock, models.StatusUploaded)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `game_versions` SET `status`=?")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		expectSideEffects(mock)
		expectVersionByID(mock, models.StatusApproved)

		v, err := service.Decide(Actor{UserID: 1, IsAdmin: true}, GameRef{ID: 3}, DecisionApprove, "looks good")

		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, v.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reject from uploaded", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		expectGameWithLatest(mock, 12)
		expectVersionByID(mock, models.StatusUploaded)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `game_versions` SET `status`=?")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		expectSideEffects(mock)
		expectVersionByID(mock, models.StatusQCFailed)

		v, err := service.Decide(Actor{UserID: 1, IsAdmin: true}, GameRef{ID: 3}, DecisionReject, "audio is broken")

		require.NoError(t, err)
		assert.Equal(t, models.StatusQCFailed, v.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("published version rejects decisions", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		expectGameWithLatest(mock, 12)
		expectVersionByID(mock, models.StatusPublished)

		_, err := service.Decide(Actor{UserID: 1, IsAdmin: true}, GameRef{ID: 3}, DecisionApprove, "")

		assert.ErrorIs(t, err, storage.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-admin", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		_, err := service.Decide(Actor{UserID: 7}, GameRef{ID: 3}, DecisionApprove, "")

		assert.ErrorIs(t, err, storage.ErrForbidden)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown decision", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		_, err := service.Decide(Actor{UserID: 1, IsAdmin: true}, GameRef{ID: 3}, Decision("maybe"), "")

		assert.ErrorIs(t, err, storage.ErrValidation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPublish(t *testing.T) {
	t.Run("approved goes live", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		expectGameWithLatest(mock, 12)
		expectVersionByID(mock, models.StatusApproved)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `game_versions` SET `status`=?")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `games` SET")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		expectSideEffects(mock)
		expectVersionByID(mock, models.StatusPublished)

		v, err := service.Publish(Actor{UserID: 1, IsAdmin: true}, GameRef{ID: 3})

		require.NoError(t, err)
		assert.Equal(t, models.StatusPublished, v.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("draft cannot be published", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		expectGameWithLatest(mock, 12)
		expectVersionByID(mock, models.StatusDraft)

		_, err := service.Publish(Actor{UserID: 1, IsAdmin: true}, GameRef{ID: 3})

		assert.ErrorIs(t, err, storage.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-admin", func(t *testing.T) {
		service, mock := setupLifecycleService(t)

		_, err := service.Publish(Actor{UserID: 7}, GameRef{ID: 3})

		assert.ErrorIs(t, err, storage.ErrForbidden)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
