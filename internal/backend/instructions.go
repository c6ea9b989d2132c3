package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashureev/chatengine/internal/domain"
)

// Instructions returns the fixed instruction set sent with every context.
func Instructions(wctx *domain.WorkingContext) string {
	name, kind := "Assistente", "virtual"
	if a := wctx.Data.Assistant; a != nil {
		if v, ok := a["name"].(string); ok && v != "" {
			name = v
		}
		if v, ok := a["type"].(string); ok && v != "" {
			kind = v
		}
	}
	company := "nossa empresa"
	if c := wctx.Data.Company; c != nil {
		if v, ok := c["name"].(string); ok && v != "" {
			company = v
		}
	}

	return strings.Join([]string{
		"INSTRUÇÕES:",
		"- Responda APENAS com JSON válido (sem markdown, texto fora de {}).",
		fmt.Sprintf("- Você é %s (%s) da empresa %s.", name, kind, company),
		"- Use SOMENTE os dados do contexto (company, assistant, services, schedule, schedule_slots). Não invente.",
		"- Considere detalhes do cliente e mensagens anteriores (history) para coerência.",
		"SERVIÇOS:",
		"- 1 serviço → system_response.service (objeto).",
		"- Vários → system_response.services (array).",
		"- NUNCA mude preço/duração.",
		"AGENDAMENTOS:",
		"- Copie schedule_slots como system_response.schedule_slots (array, máx 3).",
		"- Agendamentos → system_response.schedule.",
		"- Nenhum dado → system_response: { 'function': 'no_action' }.",
		"RESPOSTA:",
		"- Mostrou serviço/agendamento → inclua 'function': 'show_service', 'schedule_slots' ou 'schedule'.",
		"- Só mencionou → NÃO inclua 'function'.",
		"- Nada a fazer → function: 'no_action'.",
		"FORMATO:",
		"- { 'user_response': '...', 'system_response': { 'function': '...' } }",
	}, "\n")
}

// promptPayload is the user message sent alongside the instructions.
func promptPayload(wctx *domain.WorkingContext) ([]byte, error) {
	payload := map[string]any{
		"user_message": wctx.UserMessage,
		"context":      wctx,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode prompt: %w", err)
	}
	return raw, nil
}
