package config

// Analysis defaults.
const (
	// DefaultWorkers of zero means one parse worker per CPU.
	DefaultWorkers   = 0
	DefaultTimeout   = "10m"
	DefaultCacheSize = 4096
)

// Scan defaults.
const (
	DefaultSkipVendor = false
	DefaultSkipHidden = false
)

// Logging defaults.
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = LogFormatText
	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
	DefaultLogCompress   = true
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)
