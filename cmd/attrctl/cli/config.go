package cli

import (
	"os"

	"github.com/attrieng/engine/internal/engineconfig"
	"github.com/attrieng/engine/internal/layout"
)

// resolveRoot returns root unchanged if non-empty, otherwise the current
// working directory.
func resolveRoot(root string) (string, error) {
	if root != "" {
		return root, nil
	}
	return os.Getwd()
}

// loadConfig loads engine configuration from hooks/config.json and
// hooks/config.local.json under root, falling back to engineconfig.Default
// when neither file exists.
func loadConfig(root string) (engineconfig.Config, error) {
	return engineconfig.Load(layout.ConfigPath(root), layout.ConfigLocalPath(root))
}
