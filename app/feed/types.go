package feed

import (
	"time"
)

// Feed item types

type Item struct {
	// Identity is the canonical item URL, or the feed-provided GUID
	// when the item carries no link. Records are keyed by it.
	Identity    string
	GUID        string
	Title       string
	Link        string
	Body        string
	PublishedAt time.Time
	Authors     []string // Multiple authors in format "email (name)" or "name"
	Categories  []string

	// Fingerprint covers title, identity and body. Equal fingerprints
	// mean the tracked copy is already up to date.
	Fingerprint string
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Labels   []string       `yaml:"labels"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled        bool `yaml:"enabled"`
	MaxItems       int  `yaml:"max_items"`
	Timeout        int  `yaml:"timeout"`         // seconds
	ExtractContent bool `yaml:"extract_content"` // enable content extraction
}
