package config

const (
	defaultConfigPath          = "~/.config/sagelink/config.toml"
	defaultTargetRoot          = "~/media/sagetv"
	defaultStateDir            = "~/.local/share/sagelink"
	defaultLogDir              = "~/.local/share/sagelink/logs"
	defaultMoviesDir           = "Movies"
	defaultTVDir               = "TV Shows"
	defaultSageXHost           = "localhost"
	defaultSageXPort           = 8080
	defaultSageXPageSize       = 100
	defaultSageXTimeoutSeconds = 30
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogVerbosity        = 1
	defaultLogRetentionDays    = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TargetRoot: defaultTargetRoot,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Library: Library{
			MoviesDir: defaultMoviesDir,
			TVDir:     defaultTVDir,
		},
		SageX: SageX{
			Host:           defaultSageXHost,
			Port:           defaultSageXPort,
			PageSize:       defaultSageXPageSize,
			TimeoutSeconds: defaultSageXTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Verbosity:     defaultLogVerbosity,
			Format:        defaultLogFormat,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
