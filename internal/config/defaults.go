package config

const (
	defaultDatasetDir        = "karaoke_dataset"
	defaultCatalogFile       = "metadata.json"
	defaultUnmatchedFile     = "unmatched.json"
	defaultLyricsDir         = "lyrics"
	defaultSeparatedDir      = "separated"
	defaultFuzzyThreshold    = 0.65
	defaultArtistBonus       = 0.15
	defaultMetric            = "levenshtein"
	defaultAudioFormat       = "wav"
	defaultArchiveFile       = "downloaded.txt"
	defaultDownloadDelay     = 5
	defaultGeniusBaseURL     = "https://api.genius.com"
	defaultRequestsPerMinute = 30
	defaultLyricsTimeout     = 15
	defaultSeparationBinary  = "spleeter"
	defaultSeparationModel   = "spleeter:2stems"
	defaultPrunePrefix       = "NA-"
	defaultWatchDebounce     = 5
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogFileLevel      = "debug"
	geniusTokenEnv           = "GENIUS_API_TOKEN"
	datasetDirEnv            = "SONGBOOK_DATASET_DIR"
)

// Default returns a Config populated with repository defaults. Paths are
// left unexpanded until Load normalizes them.
func Default() Config {
	return Config{
		Paths: Paths{
			DatasetDir:    defaultDatasetDir,
			CatalogFile:   defaultCatalogFile,
			UnmatchedFile: defaultUnmatchedFile,
			LyricsDir:     defaultLyricsDir,
			SeparatedDir:  defaultSeparatedDir,
		},
		Inventory: Inventory{
			Extensions: []string{".wav"},
		},
		Reconcile: Reconcile{
			FuzzyThreshold: defaultFuzzyThreshold,
			ArtistBonus:    defaultArtistBonus,
			Metric:         defaultMetric,
		},
		Download: Download{
			AudioFormat:  defaultAudioFormat,
			ArchiveFile:  defaultArchiveFile,
			DelaySeconds: defaultDownloadDelay,
		},
		Lyrics: Lyrics{
			BaseURL:           defaultGeniusBaseURL,
			RequestsPerMinute: defaultRequestsPerMinute,
			TimeoutSeconds:    defaultLyricsTimeout,
		},
		Separation: Separation{
			Binary: defaultSeparationBinary,
			Model:  defaultSeparationModel,
		},
		Prune: Prune{
			Prefix: defaultPrunePrefix,
		},
		Watch: Watch{
			DebounceSeconds: defaultWatchDebounce,
		},
		Logging: Logging{
			Format:    defaultLogFormat,
			Level:     defaultLogLevel,
			FileLevel: defaultLogFileLevel,
		},
	}
}
