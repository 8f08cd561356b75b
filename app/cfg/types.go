package cfg

type Cfg struct {
	// Feed configuration
	FeedURL  string
	FeedsDir string

	// State configuration
	StateFile    string
	StateBackend string

	// Tracker configuration
	GitHubToken   string
	RepoOwner     string
	RepoName      string
	ProjectNumber int
	ProjectID     string
	StatusField   string
	DefaultStatus string
	RulesFile     string
	Labels        []string
	Milestone     string

	// Run configuration
	SyncInterval int
	Port         string
	APIAccessKey string
	FetchTimeout int
	DryRun       bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
