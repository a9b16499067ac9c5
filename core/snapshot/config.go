package snapshot

// Config holds configuration for the snapshot working tree.
type Config struct {
	// Path is the root of the snapshot, which is also the git working tree.
	Path string `mapstructure:"path" default:"snapshot"`
	// DryRun computes changes without writing, committing or notifying.
	DryRun bool `mapstructure:"dry_run" default:"false"`
}
