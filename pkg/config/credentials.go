package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Secret names read from the environment.
const (
	SerperAPIKey    = "SERPER_API_KEY"
	OpenAIAPIKey    = "OPENAI_API_KEY"
	AnthropicAPIKey = "ANTHROPIC_API_KEY"
	GoogleAPIKey    = "GOOGLE_API_KEY"
	GeminiAPIKey    = "GEMINI_API_KEY"
)

// MissingCredentialError reports a required secret that is unset or empty.
type MissingCredentialError struct {
	Name string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential %s: set it in the environment or .env", e.Name)
}

// IsMissingCredential reports whether err wraps a MissingCredentialError.
func IsMissingCredential(err error) bool {
	var target *MissingCredentialError
	return errors.As(err, &target)
}

// GetSecret returns the value of the named environment variable.
func GetSecret(name string) (string, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return "", &MissingCredentialError{Name: name}
	}
	return v, nil
}

// Credentials holds the two secrets the pipeline needs at startup.
type Credentials struct {
	SearchAPIKey string
	ModelAPIKey  string
}

// ModelKeyNames lists the environment variables accepted for a provider's API
// key, in lookup order. Providers without a key return nil.
func ModelKeyNames(provider string) []string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "openai":
		return []string{OpenAIAPIKey}
	case "anthropic", "claude":
		return []string{AnthropicAPIKey}
	case "gemini", "google":
		return []string{GoogleAPIKey, GeminiAPIKey}
	default:
		return nil
	}
}

// LoadCredentials reads the search key and the model key for provider. The
// first missing secret is returned as a *MissingCredentialError.
func LoadCredentials(provider string) (Credentials, error) {
	search, err := GetSecret(SerperAPIKey)
	if err != nil {
		return Credentials{}, err
	}
	creds := Credentials{SearchAPIKey: search}

	names := ModelKeyNames(provider)
	if len(names) == 0 {
		return creds, nil
	}
	for _, name := range names {
		if key, err := GetSecret(name); err == nil {
			creds.ModelAPIKey = key
			return creds, nil
		}
	}
	return Credentials{}, &MissingCredentialError{Name: names[0]}
}

// LoadDotEnv loads variables from path without overriding ones already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
