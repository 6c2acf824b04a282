package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvValidator handles validation of required environment variables
type EnvValidator struct{}

// NewEnvValidator creates a new environment validator instance
func NewEnvValidator() *EnvValidator {
	return &EnvValidator{}
}

// RequiredVars are the variables the bot cannot start without
var RequiredVars = []string{"BOT_TOKEN", "API_ID", "API_HASH"}

// ValidateRequired fails when a required variable is blank or API_ID is not
// numeric
func (e *EnvValidator) ValidateRequired() error {
	var missing []string
	for _, name := range RequiredVars {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v. Set them in .env or the environment", missing)
	}

	if _, _, err := e.GetAPICredentials(); err != nil {
		return fmt.Errorf("invalid API_ID: %w", err)
	}
	return nil
}

// GetBotToken returns BOT_TOKEN
func (e *EnvValidator) GetBotToken() string {
	return strings.TrimSpace(os.Getenv("BOT_TOKEN"))
}

// GetAPICredentials returns API_ID and API_HASH
func (e *EnvValidator) GetAPICredentials() (int, string, error) {
	rawID := strings.TrimSpace(os.Getenv("API_ID"))
	apiHash := strings.TrimSpace(os.Getenv("API_HASH"))

	switch {
	case rawID == "":
		return 0, "", fmt.Errorf("API_ID environment variable is not set")
	case apiHash == "":
		return 0, "", fmt.Errorf("API_HASH environment variable is not set")
	}

	apiID, err := strconv.Atoi(rawID)
	if err != nil {
		return 0, "", fmt.Errorf("API_ID must be a valid integer, got: %s", rawID)
	}
	return apiID, apiHash, nil
}

// GetString returns the variable or fallback when unset or blank
func (e *EnvValidator) GetString(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

// GetInt parses an optional integer variable
func (e *EnvValidator) GetInt(name string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer, got: %s", name, value)
	}
	return n, nil
}

// GetBool parses an optional boolean variable (1/0, true/false, yes/no)
func (e *EnvValidator) GetBool(name string, fallback bool) (bool, error) {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch value {
	case "":
		return fallback, nil
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s must be a boolean, got: %s", name, value)
	}
}

// GetDuration parses an optional duration variable such as "1s" or "500ms"
func (e *EnvValidator) GetDuration(name string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 1s, 500ms), got: %s", name, value)
	}
	return d, nil
}
