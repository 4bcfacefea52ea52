package models

import "strings"

// CommandType enumerates supported farmer chat commands.
type CommandType string

const (
	CommandPlan        CommandType = "plan"
	CommandCatalog     CommandType = "catalog"
	CommandIngredients CommandType = "ingredients"
	CommandPublish     CommandType = "publish"
	CommandHelp        CommandType = "help"
	CommandUnknown     CommandType = "unknown"
)

// Command represents a parsed instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	normalized := strings.TrimSpace(strings.ToLower(message))
	if normalized == "" {
		return Command{Type: CommandUnknown, Raw: message}
	}

	tokens := strings.Fields(normalized)
	cmd := Command{Raw: message}

	head := strings.TrimPrefix(tokens[0], "/")
	switch head {
	case string(CommandPlan), "feed":
		cmd.Type = CommandPlan
	case string(CommandCatalog), "birds":
		cmd.Type = CommandCatalog
	case string(CommandIngredients):
		cmd.Type = CommandIngredients
	case string(CommandPublish), "export":
		cmd.Type = CommandPublish
	case string(CommandHelp), "start":
		cmd.Type = CommandHelp
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
