package models

import (
	"strings"
	"time"
)

// Project represents a tracked fansub project. Name is the natural key:
// it is unique across all projects and URL slugs derive from it.
type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	EnglishName    string    `json:"englishName,omitempty"`
	JapaneseName   string    `json:"japaneseName,omitempty"`
	Summary        string    `json:"summary,omitempty"`
	Process        string    `json:"process,omitempty"`
	EpisodesNumber int       `json:"episodesNumber"`
	Genre          string    `json:"genre"`
	AddedBy        string    `json:"addedBy"`
	CoverImageName *string   `json:"coverImageName"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Slug returns the URL identifier for the project: spaces become hyphens.
// The transform is lossy; names that differ only in separator collide.
func (p *Project) Slug() string {
	return strings.ReplaceAll(p.Name, " ", "-")
}

// NameFromSlug recovers the candidate project name from a URL slug.
func NameFromSlug(slug string) string {
	return strings.ReplaceAll(slug, "-", " ")
}

// ProjectUpdate carries the replacement field values for an update.
// CoverImageName is only applied when a new file was staged; nil leaves
// the stored value untouched.
type ProjectUpdate struct {
	Name           string
	EnglishName    string
	JapaneseName   string
	Summary        string
	Process        string
	EpisodesNumber int
	Genre          string
	CoverImageName *string
}
