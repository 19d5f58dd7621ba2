package lifecycle

import (
	"errors"
	"testing"

	"iruka_console/internal/models"
	"iruka_console/internal/storage"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []models.VersionStatus{
	models.StatusDraft,
	models.StatusUploaded,
	models.StatusQCProcessing,
	models.StatusQCPassed,
	models.StatusQCFailed,
	models.StatusApproved,
	models.StatusPublished,
	models.StatusArchived,
}

func TestTransition_SubmitQC(t *testing.T) {
	for _, from := range allStatuses {
		t.Run(string(from), func(t *testing.T) {
			to, err := Transition(from, ActionSubmitQC)

			if from == models.StatusDraft {
				assert.NoError(t, err)
				assert.Equal(t, models.StatusUploaded, to)
				return
			}
			assert.ErrorIs(t, err, storage.ErrInvalidState)
		})
	}
}

func TestTransition_Decisions(t *testing.T) {
	decidable := map[models.VersionStatus]bool{
		models.StatusDraft:        true,
		models.StatusUploaded:     true,
		models.StatusQCProcessing: true,
	}

	for _, from := range allStatuses {
		t.Run("approve_"+string(from), func(t *testing.T) {
			to, err := Transition(from, ActionApprove)

			if decidable[from] {
				assert.NoError(t, err)
				assert.Equal(t, models.StatusApproved, to)
				return
			}
			assert.ErrorIs(t, err, storage.ErrInvalidState)
		})

		t.Run("reject_"+string(from), func(t *testing.T) {
			to, err := Transition(from, ActionReject)

			if decidable[from] {
				assert.NoError(t, err)
				assert.Equal(t, models.StatusQCFailed, to)
				return
			}
			assert.ErrorIs(t, err, storage.ErrInvalidState)
		})
	}
}

func TestTransition_Publish(t *testing.T) {
	for _, from := range allStatuses {
		t.Run(string(from), func(t *testing.T) {
			to, err := Transition(from, ActionPublish)

			if from == models.StatusApproved {
				assert.NoError(t, err)
				assert.Equal(t, models.StatusPublished, to)
				return
			}
			assert.ErrorIs(t, err, storage.ErrInvalidState)
		})
	}
}

func TestTransition_ErrorNamesCurrentStatus(t *testing.T) {
	_, err := Transition(models.StatusPublished, ActionApprove)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrInvalidState))
	assert.Contains(t, err.Error(), "published")
	assert.Contains(t, err.Error(), "approve")
}
