package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want CommandType
		args []string
	}{
		{"/stock Aspirina Forte", CommandStock, []string{"Aspirina", "Forte"}},
		{"BUSCAR gasas", CommandStock, []string{"gasas"}},
		{"/alertas", CommandAlerts, nil},
		{"suppliers", CommandSuppliers, nil},
		{" ayuda ", CommandHelp, nil},
		{"hola", CommandUnknown, nil},
		{"   ", CommandUnknown, nil},
	}

	for _, tt := range tests {
		cmd := ParseCommand(tt.in)
		assert.Equal(t, tt.want, cmd.Type, tt.in)
		assert.Equal(t, tt.args, cmd.Args, tt.in)
		assert.Equal(t, tt.in, cmd.Raw)
	}
}

func TestCommandQuery(t *testing.T) {
	assert.Equal(t, "Aspirina Forte", ParseCommand("/stock  Aspirina   Forte").Query())
	assert.Empty(t, ParseCommand("/stock").Query())
}

func TestInboundMessageBody(t *testing.T) {
	assert.Equal(t, "/stock x", InboundMessage{Text: &TextContent{Body: "/stock x"}}.Body())
	assert.Equal(t, "alertas", InboundMessage{Interactive: &InteractiveContent{ButtonReply: &ReplyTitle{ID: "alertas"}}}.Body())
	assert.Equal(t, "proveedores", InboundMessage{Interactive: &InteractiveContent{ListReply: &ReplyTitle{ID: "proveedores"}}}.Body())
	assert.Empty(t, InboundMessage{Type: "image"}.Body())
}
