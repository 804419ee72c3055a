package config

const (
	defaultInstallRoot      = "~/.local/share/ramandpid/releases"
	defaultDataDir          = "~/.local/share/ramandpid"
	defaultLogDir           = "~/.local/share/ramandpid/logs"
	defaultEnvDir           = "~/.local/share/ramandpid/venv"
	defaultReferenceDB      = "~/.local/share/ramandpid/reference.db"
	defaultEntrypoint       = "raman_dpid"
	defaultPythonBinary     = "python3"
	defaultRequirementsFile = "requirements.txt"
	defaultUpdateTimeout    = 120
	defaultManifestURL      = "https://raw.githubusercontent.com/ariessunfeld/raman-spectroscopy/main/manifest.json"
	defaultDownloadTimeout  = 300
	defaultBaselineLambda   = 1e5
	defaultBaselineP        = 0.05
	defaultBaselineIters    = 1000
	defaultDiscreteStep     = 25.0
	defaultPeakRelHeight    = 0.5
	defaultSmoothingWindow  = 13
	defaultSmoothingOrder   = 3
	defaultSearchTolerance  = 5.0
	defaultMaxCombination   = 3
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InstallRoot: defaultInstallRoot,
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			EnvDir:      defaultEnvDir,
			ReferenceDB: defaultReferenceDB,
		},
		Launcher: Launcher{
			Entrypoint:       defaultEntrypoint,
			PythonBinary:     defaultPythonBinary,
			RequirementsFile: defaultRequirementsFile,
			UpdateTimeout:    defaultUpdateTimeout,
		},
		Updater: Updater{
			Enabled:         true,
			ManifestURL:     defaultManifestURL,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Baseline: Baseline{
			Lambda:       defaultBaselineLambda,
			Asymmetry:    defaultBaselineP,
			MaxIters:     defaultBaselineIters,
			DiscreteStep: defaultDiscreteStep,
		},
		Peaks: Peaks{
			RelHeight: defaultPeakRelHeight,
		},
		Smoothing: Smoothing{
			WindowLength: defaultSmoothingWindow,
			PolyOrder:    defaultSmoothingOrder,
		},
		Search: Search{
			Tolerance:      defaultSearchTolerance,
			MaxCombination: defaultMaxCombination,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		WhatsNew: WhatsNew{
			Show: true,
		},
	}
}
