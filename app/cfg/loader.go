package cfg

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Feed configuration
	FeedURL  string `long:"feed-url" env:"FEED_URL" description:"URL of a single feed to sync (alternative to a feeds directory)"`
	FeedsDir string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`

	// State configuration
	StateFile    string `long:"state-file" env:"STATE_FILE" default:"./data/state.json" description:"Path to the sync state file"`
	StateBackend string `long:"state-backend" env:"STATE_BACKEND" default:"file" choice:"file" choice:"sqlite" description:"Sync state backend"`

	// Tracker configuration
	GitHubToken   string `long:"github-token" env:"GITHUB_TOKEN" description:"GitHub API token (required)" required:"true"`
	Repo          string `long:"repo" env:"REPO" description:"Destination repository in owner/name form (required)" required:"true"`
	ProjectNumber int    `long:"project-number" env:"PROJECT_NUMBER" description:"Projects V2 board number to attach created issues to"`
	ProjectID     string `long:"project-id" env:"PROJECT_ID" description:"Projects V2 board node ID (skips the number lookup)"`
	StatusField   string `long:"status-field" env:"STATUS_FIELD" default:"Status" description:"Name of the board's status field"`
	DefaultStatus string `long:"default-status" env:"DEFAULT_STATUS" default:"Todo" description:"Board status assigned when no rule matches"`
	RulesFile     string `long:"rules-file" env:"RULES_FILE" description:"YAML file with ordered status rules"`
	Labels        string `long:"labels" env:"LABELS" default:"rss-sync" description:"Comma-separated labels applied to created issues"`
	Milestone     string `long:"milestone" env:"MILESTONE" description:"Milestone title assigned to created issues (optional)"`

	// Run configuration
	SyncInterval int    `long:"interval" env:"SYNC_INTERVAL" default:"0" description:"Seconds between sync runs (0 runs once and exits)"`
	Port         string `long:"port" env:"PORT" description:"HTTP status API port, watch mode only (empty disables the API)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	FetchTimeout int    `long:"timeout" env:"FETCH_TIMEOUT" default:"30" description:"Feed fetch timeout in seconds"`
	DryRun       bool   `long:"dry-run" env:"DRY_RUN" description:"Log intended tracker operations without performing them"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Board/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	owner, name, err := splitRepo(raw.Repo)
	if err != nil {
		return nil, err
	}

	cfg := &Cfg{
		FeedURL:       raw.FeedURL,
		FeedsDir:      raw.FeedsDir,
		StateFile:     raw.StateFile,
		StateBackend:  raw.StateBackend,
		GitHubToken:   raw.GitHubToken,
		RepoOwner:     owner,
		RepoName:      name,
		ProjectNumber: raw.ProjectNumber,
		ProjectID:     raw.ProjectID,
		StatusField:   raw.StatusField,
		DefaultStatus: raw.DefaultStatus,
		RulesFile:     raw.RulesFile,
		Labels:        splitLabels(raw.Labels),
		Milestone:     raw.Milestone,
		SyncInterval:  raw.SyncInterval,
		Port:          raw.Port,
		APIAccessKey:  raw.APIAccessKey,
		FetchTimeout:  raw.FetchTimeout,
		DryRun:        raw.DryRun,
		UserAgent:     raw.UserAgent,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func splitRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", repo)
	}
	return owner, name, nil
}

func splitLabels(labels string) []string {
	var out []string
	for _, label := range strings.Split(labels, ",") {
		if label = strings.TrimSpace(label); label != "" {
			out = append(out, label)
		}
	}
	return out
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
