package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	RequiredKeys []string
}

var (
	// Environment-specific requirements
	requirements = map[Environment]ConfigRequirements{
		Development: {},
		Test:        {},
		CI:          {},
		Production: {
			RequiredKeys: []string{
				"STRIPE_API_KEY",
				"STRIPE_WEBHOOK_SECRET",
				"LLM_API_KEY",
			},
		},
	}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	var errs []ValidationError

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{Field: "JWT_SECRET", Message: "is required"})
	}

	values := map[string]string{
		"STRIPE_API_KEY":        cfg.StripeAPIKey,
		"STRIPE_WEBHOOK_SECRET": cfg.StripeWebhookSecret,
		"LLM_API_KEY":           cfg.LLMAPIKey,
	}
	for _, key := range requirements[cfg.Environment].RequiredKeys {
		if values[key] == "" {
			errs = append(errs, ValidationError{Field: key, Message: "is required in " + string(cfg.Environment)})
		}
	}

	switch cfg.StoreDriver {
	case DriverPostgres, DriverSQLite:
	case DriverMongo:
		if cfg.MongoURL == "" {
			errs = append(errs, ValidationError{Field: "MONGO_URL", Message: "is required when STORE_DRIVER is mongo"})
		}
	default:
		errs = append(errs, ValidationError{Field: "STORE_DRIVER", Message: fmt.Sprintf("unknown driver %q", cfg.StoreDriver)})
	}

	switch cfg.LLMProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, ValidationError{Field: "LLM_PROVIDER", Message: fmt.Sprintf("unknown provider %q", cfg.LLMProvider)})
	}

	if cfg.FreeRecipesLimit <= 0 {
		errs = append(errs, ValidationError{Field: "FREE_RECIPES_LIMIT", Message: "must be positive"})
	}
	if cfg.UnlimitedPrice <= 0 {
		errs = append(errs, ValidationError{Field: "UNLIMITED_PRICE", Message: "must be positive"})
	}
	if cfg.JWTExpiration <= 0 {
		errs = append(errs, ValidationError{Field: "JWT_EXPIRATION", Message: "must be positive"})
	}
	if cfg.GenerateRateLimit <= 0 || cfg.GenerateRateWindow <= 0 {
		errs = append(errs, ValidationError{Field: "GENERATE_RATE_LIMIT", Message: "limit and window must be positive"})
	}
	if cfg.AuthRateLimit <= 0 || cfg.AuthRateBurst <= 0 {
		errs = append(errs, ValidationError{Field: "AUTH_RATE_LIMIT", Message: "rate and burst must be positive"})
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", joinValidation(errs))
	}
	return nil
}

func joinValidation(errs []ValidationError) error {
	joined := make([]error, 0, len(errs))
	for _, e := range errs {
		joined = append(joined, e)
	}
	return errors.Join(joined...)
}
