package models

import "strings"

// CommandType enumerates the stock queries accepted over WhatsApp.
type CommandType string

const (
	CommandStock     CommandType = "stock"
	CommandAlerts    CommandType = "alertas"
	CommandSuppliers CommandType = "proveedores"
	CommandHelp      CommandType = "ayuda"
	CommandUnknown   CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"stock":       CommandStock,
	"buscar":      CommandStock,
	"alertas":     CommandAlerts,
	"alerts":      CommandAlerts,
	"proveedores": CommandSuppliers,
	"suppliers":   CommandSuppliers,
	"ayuda":       CommandHelp,
	"help":        CommandHelp,
}

// Command is a parsed query extracted from a WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// Query joins the arguments back into a search string.
func (c Command) Query() string {
	return strings.Join(c.Args, " ")
}

// ParseCommand derives a Command from a free-form message. The leading slash
// is optional and the keyword is case-insensitive; arguments keep their case.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(message)
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	if t, ok := commandAliases[head]; ok {
		cmd.Type = t
	}
	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd
}
