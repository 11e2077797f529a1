package main

import "flag"

// Flags holds all command-line flags
type Flags struct {
	// Commands
	Execute  *string
	Query    *string
	Describe *string
	Batch    *string
	Transfer *string

	// Options
	Config     *string
	Output     *string
	Sheet      *string
	Schema     *string
	Target     *string // target table name for -transfer
	Strategy   *string
	ChunkSize  *int
	Params     *string // comma-separated parameters for -execute / -query
	Compress   *bool
	Checksum   *bool
	Verbose    *bool
	JSONLogs   *bool
	MetricsOut *string

	// Config Creation
	CreateConfig *string

	// Misc
	Version *bool
}

// ParseFlags defines and parses all command-line flags
func ParseFlags(args []string) (*Flags, error) {
	fs := flag.NewFlagSet("dmbridge", flag.ContinueOnError)
	f := &Flags{}

	// Commands
	f.Execute = fs.String("execute", "", "Execute a statement without result set")
	f.Query = fs.String("query", "", "Run a query and write its rows (JSON lines or xlsx by -output extension)")
	f.Describe = fs.String("describe", "", "Describe a DM table from the catalog (TABLE or SCHEMA.TABLE)")
	f.Batch = fs.String("batch", "", "Run operations from a YAML file in one transaction (file path)")
	f.Transfer = fs.String("transfer", "", "Copy a table into the target database (TABLE or SCHEMA.TABLE)")

	// Options
	f.Config = fs.String("config", "config.yaml", "Configuration file path")
	f.Output = fs.String("output", "", "Output file path (default: stdout)")
	f.Sheet = fs.String("sheet", "Sheet1", "Excel sheet name for xlsx output")
	f.Schema = fs.String("schema", "", "Source schema (overrides source.schema)")
	f.Target = fs.String("target-table", "", "Target table name for -transfer (default: lower-cased source name)")
	f.Strategy = fs.String("strategy", "copy", "Write strategy for -transfer: copy, insert, ignore")
	f.ChunkSize = fs.Int("chunk-size", 1000, "Rows per target write for -transfer")
	f.Params = fs.String("params", "", "Comma-separated statement parameters; \\N is NULL")
	f.Compress = fs.Bool("compress", false, "Compress JSON lines output with zstd")
	f.Checksum = fs.Bool("hash", false, "Print XXH3 checksum of JSON lines output")
	f.Verbose = fs.Bool("v", false, "Debug logging")
	f.JSONLogs = fs.Bool("json-logs", false, "Log as JSON instead of console format")
	f.MetricsOut = fs.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")

	// Config Creation
	f.CreateConfig = fs.String("create-config", "", "Create sample config.yaml for a source driver: odbc, pgx, sqlite, sqlserver, mysql")

	// Misc
	f.Version = fs.Bool("version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// commandWasSpecified checks if any command was specified
func (f *Flags) commandWasSpecified() bool {
	return *f.Execute != "" ||
		*f.Query != "" ||
		*f.Describe != "" ||
		*f.Batch != "" ||
		*f.Transfer != ""
}
