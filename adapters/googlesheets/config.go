package googlesheets

import "errors"

// Config represents configuration specific to Google Sheets backend
type Config struct {
	SpreadsheetID string

	// Credential sources, tried in this order
	ServiceAccountKey     string // Service account JSON, inline or base64-encoded
	ServiceAccountKeyFile string // Path to a service account JSON file
	ClientEmail           string // Service account email, used together with PrivateKey
	PrivateKey            string // PEM private key
}

var (
	ErrNoSpreadsheetID = errors.New("spreadsheet id is not set")
	ErrNoCredentials   = errors.New("no service account credentials configured")
)
