package commands

import (
	"strings"

	"github.com/goliatone/go-lodge-cms/internal/logging"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
)

const commandModuleRoot = "cms.commands"

// CommandLogger returns the logger for a command module such as
// cms.commands.blocks.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, commandModuleRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
