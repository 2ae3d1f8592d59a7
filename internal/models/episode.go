package models

import (
	"time"
)

// EpisodeStatus tracks where an episode sits in the release pipeline.
type EpisodeStatus string

const (
	StatusTranslating EpisodeStatus = "translating"
	StatusEditing     EpisodeStatus = "editing"
	StatusEncoding    EpisodeStatus = "encoding"
	StatusReleased    EpisodeStatus = "released"
)

// ValidEpisodeStatus reports whether s is a known pipeline status.
func ValidEpisodeStatus(s EpisodeStatus) bool {
	switch s {
	case StatusTranslating, StatusEditing, StatusEncoding, StatusReleased:
		return true
	}
	return false
}

// Episode represents a single episode of a project. Number is unique
// within its project.
type Episode struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"projectId"`
	Number    int           `json:"number"`
	Title     string        `json:"title,omitempty"`
	Status    EpisodeStatus `json:"status"`
	Link      string        `json:"link,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// EpisodeUpdate carries the replacement field values for an update.
type EpisodeUpdate struct {
	Title  string
	Status EpisodeStatus
	Link   string
}
