package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "X8S...1RJ"
}

// CheckAPIKeys returns the status of all credentials the service uses.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Alpha Vantage API Key", cfg.AlphaVantage.APIKey, "EARNINGS_ALPHAVANTAGE_API_KEY", "ALPHA_VANTAGE_API_KEY"),
		checkKey("SEC Contact Email", cfg.SEC.ContactEmail, "EARNINGS_SEC_CONTACT_EMAIL"),
	}
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value == "" {
		status.Source = KeySourceNone
		return status
	}

	status.Source = KeySourceConfig
	for _, env := range envVars {
		if os.Getenv(env) != "" {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
