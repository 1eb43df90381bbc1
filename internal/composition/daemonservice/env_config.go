package daemonservice

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrInvalidEnvBool = errors.New("invalid boolean environment value")

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envBoolWithFallback(key string, fallback bool) (bool, error) {
	raw := strings.ToLower(envString(key))
	switch raw {
	case "":
		return fallback, nil
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return fallback, fmt.Errorf("%w: %s=%q", ErrInvalidEnvBool, key, raw)
	}
}
