package config

const (
	defaultDataDir     = "~/.local/share/gatecheck"
	defaultLogDir      = "~/.local/share/gatecheck/logs"
	defaultDownloadDir = "~/.local/share/gatecheck/downloads"

	defaultWebDriverURL = "http://127.0.0.1:9515"

	defaultChallengePollSeconds      = 1
	defaultChallengeSettleSeconds    = 2
	defaultChallengeCeilingSeconds   = 300
	defaultChallengeHeartbeatSeconds = 30

	defaultCheckOutput = "auto"

	defaultWarehouse      = "HAYMAN WAREHOUSE"
	defaultUnitsPerPallet = 60

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults. Terminals are
// filled in during normalization when the file defines none; pre-seeding the
// slice here would make decoded [[terminal]] entries append to the defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			DownloadDir: defaultDownloadDir,
		},
		Browser: Browser{
			WebDriverURL: defaultWebDriverURL,
		},
		Challenge: Challenge{
			PollSeconds:      defaultChallengePollSeconds,
			SettleSeconds:    defaultChallengeSettleSeconds,
			CeilingSeconds:   defaultChallengeCeilingSeconds,
			HeartbeatSeconds: defaultChallengeHeartbeatSeconds,
		},
		Check: Check{
			Output: defaultCheckOutput,
		},
		WMS: WMS{
			Warehouse:      defaultWarehouse,
			UnitsPerPallet: defaultUnitsPerPallet,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// defaultTerminals is the standard three-terminal rotation.
func defaultTerminals() []Terminal {
	return []Terminal{
		{
			Kind: "trapac",
			Name: "Trapac",
			URL:  "https://oakland.trapac.com/quick-check/?terminal=OAK&transaction=availability",
		},
		{
			Kind:      "tideworks",
			Name:      "Shippers Transport",
			URL:       "https://sto.tideworks.com/fc-STO/default.do",
			EnvPrefix: "STO",
		},
		{
			Kind:      "tideworks",
			Name:      "Oakland International",
			URL:       "https://oict.tideworks.com/fc-OICT/default.do",
			EnvPrefix: "OICT",
		},
	}
}
