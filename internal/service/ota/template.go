package ota

import (
	"strings"

	"github.com/oshokin/ota-updater/internal/config"
)

// Expand substitutes every [DEVICE] placeholder in template with deviceModel.
// The result is not checked for URL well-formedness.
func Expand(template, deviceModel string) string {
	return strings.ReplaceAll(template, config.DevicePlaceholder, deviceModel)
}
