// Package lifecycle holds the version state machine in one table so the
// legality of a transition can be tested independent of persistence.
// Repositories write statuses unconditionally; every handler must consult
// Transition before writing.
package lifecycle

import (
	"fmt"

	"iruka_console/internal/models"
	"iruka_console/internal/storage"
)

type Action string

const (
	ActionSubmitQC Action = "submit_qc"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionPublish  Action = "publish"
)

var transitions = map[Action]map[models.VersionStatus]models.VersionStatus{
	ActionSubmitQC: {
		models.StatusDraft: models.StatusUploaded,
	},
	ActionApprove: {
		models.StatusDraft:        models.StatusApproved,
		models.StatusUploaded:     models.StatusApproved,
		models.StatusQCProcessing: models.StatusApproved,
	},
	ActionReject: {
		models.StatusDraft:        models.StatusQCFailed,
		models.StatusUploaded:     models.StatusQCFailed,
		models.StatusQCProcessing: models.StatusQCFailed,
	},
	ActionPublish: {
		models.StatusApproved: models.StatusPublished,
	},
}

// Transition returns the status that applying action to a version in the
// given status yields, or ErrInvalidState when the transition is illegal.
// The current status is included in the message for debuggability.
func Transition(from models.VersionStatus, action Action) (models.VersionStatus, error) {
	to, ok := transitions[action][from]
	if !ok {
		return "", fmt.Errorf("cannot %s version with status: %s: %w", action, from, storage.ErrInvalidState)
	}
	return to, nil
}
