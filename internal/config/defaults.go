package config

const (
	defaultDataDir        = "~/.local/share/vantage/public"
	defaultLogDir         = "~/.local/share/vantage/logs"
	defaultCacheDB        = "~/.local/share/vantage/cache/annotations.db"
	defaultBlobDB         = "~/.local/share/vantage/cache/blobs.db"
	defaultAPIBind        = "127.0.0.1:7319"
	defaultBaseURL        = "http://127.0.0.1:7319"
	defaultRequestTimeout = 15
	defaultLerpFactor     = 0.08
	defaultEpsilon        = 0.01
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			CacheDB: defaultCacheDB,
			BlobDB:  defaultBlobDB,
			APIBind: defaultAPIBind,
		},
		Server: Server{
			BaseURL:        defaultBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Navigation: Navigation{
			LerpFactor: defaultLerpFactor,
			Epsilon:    defaultEpsilon,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
