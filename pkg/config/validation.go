package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/safefs/internal/telemetry"
	"github.com/marmos91/safefs/pkg/hooks"
)

// MinBlockSize is the smallest accepted copy block size.
const MinBlockSize = 512

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks cfg after defaults have been applied. Field errors name
// the failing tag (e.g. "oneof", "max") so callers can tell them apart.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}

	if err := getValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag()+paramSuffix(fe.Param()), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	var errs []error
	for i, r := range cfg.PathMapping.Rules {
		if strings.TrimSpace(r.Prefix) == "" {
			errs = append(errs, fmt.Errorf("path_mapping.rules[%d]: prefix is empty", i))
		}
		if !filepath.IsAbs(r.Dir) {
			errs = append(errs, fmt.Errorf("path_mapping.rules[%d]: dir %q is not absolute", i, r.Dir))
		}
	}
	if cfg.Copy.BlockSize < MinBlockSize {
		errs = append(errs, fmt.Errorf("copy.block_size: %s is below the minimum of %d bytes", cfg.Copy.BlockSize, MinBlockSize))
	}
	if cfg.Telemetry.Profiling.Enabled {
		if _, err := telemetry.ParseProfileTypes(cfg.Telemetry.Profiling.ProfileTypes, false); err != nil {
			errs = append(errs, fmt.Errorf("telemetry.profiling.profile_types: %w", err))
		}
	}
	if cfg.Retry.RestartCommand != "" {
		if _, err := hooks.NewCommand(cfg.Retry.RestartCommand); err != nil {
			errs = append(errs, fmt.Errorf("retry.restart_command: %w", err))
		}
	}
	return errors.Join(errs...)
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
