package googlesheets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ServiceAccountKey represents the structure of a service account JSON key file
type ServiceAccountKey struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `json:"client_x509_cert_url"`
}

// Open resolves credentials from config, falling back to the key file
// named by GOOGLE_APPLICATION_CREDENTIALS, and creates a Backend.
// It returns ErrNoSpreadsheetID or ErrNoCredentials when the
// configuration is incomplete.
func Open(ctx context.Context, config Config, opts ...option.ClientOption) (*Backend, error) {
	if config.SpreadsheetID == "" {
		return nil, ErrNoSpreadsheetID
	}

	switch {
	case config.ServiceAccountKey != "":
		data, err := DecodeServiceAccountKey(config.ServiceAccountKey)
		if err != nil {
			return nil, err
		}
		return NewWithJSONKeyData(ctx, config, data, opts...)
	case config.ServiceAccountKeyFile != "":
		return NewWithJSONKeyFile(ctx, config, config.ServiceAccountKeyFile, opts...)
	case config.ClientEmail != "" && config.PrivateKey != "":
		return NewWithServiceAccountKey(ctx, config, config.ClientEmail, config.PrivateKey, opts...)
	case os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "":
		return NewWithJSONKeyFile(ctx, config, "", opts...)
	default:
		return nil, ErrNoCredentials
	}
}

// DecodeServiceAccountKey accepts a service account key given either as
// base64-encoded JSON or as the JSON itself
func DecodeServiceAccountKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)

	if decoded, err := base64.StdEncoding.DecodeString(key); err == nil && json.Valid(decoded) {
		return decoded, nil
	}
	if json.Valid([]byte(key)) {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("failed to parse service account key: neither JSON nor base64-encoded JSON")
}

// NewWithJSONKeyFile creates a new Backend using a JSON key file
func NewWithJSONKeyFile(ctx context.Context, config Config, jsonPath string, opts ...option.ClientOption) (*Backend, error) {
	// If jsonPath is empty, try GOOGLE_APPLICATION_CREDENTIALS env var
	if jsonPath == "" {
		jsonPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
		if jsonPath == "" {
			return nil, fmt.Errorf("no JSON key file path provided and GOOGLE_APPLICATION_CREDENTIALS not set")
		}
	}

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON key file: %w", err)
	}

	return NewWithJSONKeyData(ctx, config, jsonData, opts...)
}

// NewWithJSONKeyData creates a new Backend using JSON key data
func NewWithJSONKeyData(ctx context.Context, config Config, jsonData []byte, opts ...option.ClientOption) (*Backend, error) {
	if _, err := ParseServiceAccountJSON(jsonData); err != nil {
		return nil, err
	}

	creds, err := google.CredentialsFromJSON(ctx, jsonData, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return NewBackend(ctx, config, append([]option.ClientOption{option.WithCredentials(creds)}, opts...)...)
}

// NewWithServiceAccountKey creates a new Backend using email and private key
func NewWithServiceAccountKey(ctx context.Context, config Config, email string, privateKey string, opts ...option.ClientOption) (*Backend, error) {
	// Keys passed through environment variables often carry literal \n
	if !strings.Contains(privateKey, "\n") && strings.Contains(privateKey, `\n`) {
		privateKey = strings.ReplaceAll(privateKey, `\n`, "\n")
	}

	jwtConfig := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	return NewBackend(ctx, config, append([]option.ClientOption{option.WithTokenSource(jwtConfig.TokenSource(ctx))}, opts...)...)
}

// ParseServiceAccountJSON parses a service account JSON file or data
func ParseServiceAccountJSON(jsonData []byte) (*ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := json.Unmarshal(jsonData, &key); err != nil {
		return nil, fmt.Errorf("failed to parse service account JSON: %w", err)
	}

	if key.Type != "service_account" {
		return nil, fmt.Errorf("invalid key type: %s (expected: service_account)", key.Type)
	}

	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, fmt.Errorf("missing required fields in service account key")
	}

	return &key, nil
}
