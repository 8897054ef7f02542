package excel

// Config holds configuration for the workbook backend
type Config struct {
	FilePath string // Path to the .xlsx workbook; created on first write
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return ErrMissingFilePath
	}
	return nil
}
