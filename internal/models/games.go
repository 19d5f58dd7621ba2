package models

import "time"

// Game is the aggregate root for one mini-game product, independent of
// any particular uploaded build.
//
// LiveVersionID, when set, must point at a GameVersion with status
// "published". LatestVersionID always points at the most recently
// created version for this game, regardless of its review status.
type Game struct {
	ID                int64      `json:"id" gorm:"primaryKey"`
	GameID            string     `json:"game_id" gorm:"uniqueIndex;size:128"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Subject           string     `json:"subject"`
	Grade             string     `json:"grade"`
	Curriculum        string     `json:"curriculum"`
	Thumbnail         string     `json:"thumbnail"`
	Tags              string     `json:"tags"`
	OwnerID           int64      `json:"owner_id"`
	TeamID            *int64     `json:"team_id,omitempty"`
	LatestVersionID   *int64     `json:"latest_version_id,omitempty"`
	LiveVersionID     *int64     `json:"live_version_id,omitempty"`
	Disabled          bool       `json:"disabled"`
	IsDeleted         bool       `json:"is_deleted"`
	RolloutPercentage int        `json:"rollout_percentage" gorm:"default:100"`
	PublishedAt       *time.Time `json:"published_at,omitempty"`
	CreatedAt         *time.Time `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at"`
}
