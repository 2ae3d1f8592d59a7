package projects

import (
	"fmt"
	"strconv"
	"strings"
)

const maxNameLength = 255

// form carries the submitted project fields before validation.
type form struct {
	Name           string
	EnglishName    string
	JapaneseName   string
	Summary        string
	Process        string
	EpisodesNumber string
	Genre          string
}

// parsed is a validated form with typed fields.
type parsed struct {
	Name           string
	EnglishName    string
	JapaneseName   string
	Summary        string
	Process        string
	EpisodesNumber int
	Genre          string
}

// validate checks the submitted fields and reports the first offending
// one only, so the caller gets a single actionable message.
func validate(f *form) (*parsed, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if len(name) > maxNameLength {
		return nil, fmt.Errorf("name must be at most %d characters", maxNameLength)
	}

	episodes := 0
	if f.EpisodesNumber != "" {
		n, err := strconv.Atoi(f.EpisodesNumber)
		if err != nil {
			return nil, fmt.Errorf("episodesNumber must be a number")
		}
		if n < 0 {
			return nil, fmt.Errorf("episodesNumber must not be negative")
		}
		episodes = n
	}

	genre := strings.TrimSpace(f.Genre)
	if genre == "" {
		return nil, fmt.Errorf("genre is required")
	}

	return &parsed{
		Name:           name,
		EnglishName:    strings.TrimSpace(f.EnglishName),
		JapaneseName:   strings.TrimSpace(f.JapaneseName),
		Summary:        strings.TrimSpace(f.Summary),
		Process:        strings.TrimSpace(f.Process),
		EpisodesNumber: episodes,
		Genre:          genre,
	}, nil
}
