package models

import "time"

// AuditEntry records one lifecycle action against a game version.
// Writes are best-effort: a failed audit write never rolls back the
// transition that produced it.
type AuditEntry struct {
	ID         string        `json:"id" gorm:"primaryKey;size:36"`
	Actor      int64         `json:"actor"`
	Action     string        `json:"action" gorm:"size:32"`
	GameID     int64         `json:"game_id" gorm:"index"`
	VersionID  int64         `json:"version_id"`
	FromStatus VersionStatus `json:"from_status" gorm:"type:varchar(20)"`
	ToStatus   VersionStatus `json:"to_status" gorm:"type:varchar(20)"`
	Notes      string        `json:"notes"`
	CreatedAt  *time.Time    `json:"created_at"`
}

// HistoryEntry is the human-readable activity line shown on a game's
// console page.
type HistoryEntry struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	GameID    int64      `json:"game_id" gorm:"index"`
	Actor     int64      `json:"actor"`
	Message   string     `json:"message"`
	CreatedAt *time.Time `json:"created_at"`
}
