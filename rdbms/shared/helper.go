package shared

// FixSqlStatementGeneratorConfig validates the output table name and sets the
// schema separator so "<schema><sep><table>" renders correctly when no schema
// is supplied.
func FixSqlStatementGeneratorConfig(cfg *SqlStatementGeneratorConfig) {
	if cfg.OutputTable == "" {
		cfg.Log.Fatal("Error, missing output table name.")
	}
	cfg.SchemaSeparator = "."
	if cfg.OutputSchema == "" {
		cfg.Log.Debug("No output schema supplied; setting a blank separator.")
		cfg.SchemaSeparator = ""
	}
}
