package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// deployed are the environments that must not run on development settings.
var deployed = map[string]bool{"dev": true, "qa": true, "prod": true}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report koanf keys so messages match the YAML files and APP_* names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	v.RegisterStructValidation(validateDeployment, Config{})

	return v
}

// Validate checks field rules and the cross-field rules for deployed
// environments. The service refuses to start on failure.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

// validateDeployment rejects development-only settings outside local and
// test environments.
func validateDeployment(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}

	if db := cfg.Database; db.MaxOpenConns > 0 && db.MaxIdleConns > db.MaxOpenConns {
		sl.ReportError(db.MaxIdleConns, "database.max_idle_conns", "MaxIdleConns", "ltefield", "database.max_open_conns")
	}

	if !deployed[cfg.App.Environment] {
		return
	}

	if cfg.Auth.Token.Secret == DefaultTokenSecret {
		sl.ReportError(cfg.Auth.Token.Secret, "auth.token.secret", "Secret", "nondefault", "")
	}

	if cfg.Database.Driver == "memory" {
		sl.ReportError(cfg.Database.Driver, "database.driver", "Driver", "durable", "")
	}

	if cfg.Database.Seed {
		sl.ReportError(cfg.Database.Seed, "database.seed", "Seed", "localonly", "")
	}
}

func formatValidationErrors(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	lines := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		lines = append(lines, formatFieldError(e))
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(lines, "\n  "))
}

func formatFieldError(e validator.FieldError) string {
	key := formatFieldPath(e.Namespace())
	where := fmt.Sprintf("%s (%s)", key, EnvName(key))

	switch e.Tag() {
	case "required":
		return where + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", where, e.Param())
	case "required_unless":
		return fmt.Sprintf("%s is required unless %s", where, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", where, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", where, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", where, e.Param())
	case "url":
		return where + " must be a valid URL"
	case "startswith":
		return fmt.Sprintf("%s must start with %q", where, e.Param())
	case "alphanum", "lowercase":
		return where + " must be a lowercase alphanumeric name"
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", where, e.Param())
	case "nondefault":
		return where + " must be set; the built-in development key is not allowed"
	case "durable":
		return where + " must be a persistent store"
	case "localonly":
		return where + " is only allowed in local and test environments"
	default:
		return fmt.Sprintf("%s failed validation: %s", where, e.Tag())
	}
}

// formatFieldPath drops the root struct name: "Config.server.port" becomes
// "server.port".
func formatFieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}

	return rest
}
