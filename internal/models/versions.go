package models

import "time"

type VersionStatus string

const (
	StatusDraft        VersionStatus = "draft"
	StatusUploaded     VersionStatus = "uploaded"
	StatusQCProcessing VersionStatus = "qc_processing"
	StatusQCPassed     VersionStatus = "qc_passed"
	StatusQCFailed     VersionStatus = "qc_failed"
	StatusApproved     VersionStatus = "approved"
	StatusPublished    VersionStatus = "published"
	StatusArchived     VersionStatus = "archived"
)

// SelfQAChecklist is the developer attestation required before a version
// may be submitted for QC review.
type SelfQAChecklist struct {
	Playable        bool   `json:"playable"`
	AssetsLoad      bool   `json:"assets_load"`
	ContentAccurate bool   `json:"content_accurate"`
	AudioWorks      bool   `json:"audio_works"`
	Note            string `json:"note"`
}

func (c *SelfQAChecklist) Complete() bool {
	return c != nil && c.Playable && c.AssetsLoad && c.ContentAccurate && c.AudioWorks
}

// GameVersion is one uploaded build of a Game. Exactly one version may
// exist per (game, semver) pair; builds are never hard-deleted once
// extracted, only soft-deleted.
type GameVersion struct {
	ID          int64            `json:"id" gorm:"primaryKey"`
	GameID      int64            `json:"game_id" gorm:"uniqueIndex:idx_game_version"`
	Version     string           `json:"version" gorm:"size:64;uniqueIndex:idx_game_version"`
	StoragePath string           `json:"storage_path" gorm:"size:255"`
	EntryFile   string           `json:"entry_file" gorm:"size:255;default:index.html"`
	EntryTitle  string           `json:"entry_title"`
	BuildSize   int64            `json:"build_size"`
	Status      VersionStatus    `json:"status" gorm:"type:varchar(20);default:'draft'"`
	SubmittedBy int64            `json:"submitted_by"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
	SelfQA      *SelfQAChecklist `json:"self_qa,omitempty" gorm:"serializer:json"`
	ReleaseNote string           `json:"release_note"`
	IsDeleted   bool             `json:"is_deleted"`
	CreatedAt   *time.Time       `json:"created_at"`
	UpdatedAt   *time.Time       `json:"updated_at"`
}
