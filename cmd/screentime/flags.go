package main

// GlobalFlags holds persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	LogFile    string
}

// ExportFlags holds flags of the export run.
type ExportFlags struct {
	Output      string
	Delimiter   string
	StateDSN    string
	Sinks       []string
	MetricsFile string
}
