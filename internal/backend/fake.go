package backend

import (
	"context"

	"github.com/ashureev/chatengine/internal/domain"
)

const (
	fakePromptTokens     = 50
	fakeCompletionTokens = 30
)

type cannedReply struct {
	text     string
	function string
	boost    int64
}

var cannedReplies = map[domain.Intent]cannedReply{
	domain.IntentWelcome:          {"Olá! Seja bem-vindo(a). Como posso te ajudar hoje?", "", 10},
	domain.IntentScheduleSlotInfo: {"Vamos agendar! Temos estes horários disponíveis:", "schedule_slots", 30},
	domain.IntentScheduleInfo:     {"Aqui estão os seus agendamentos:", "schedule", 25},
	domain.IntentServiceInfo:      {"Estes são os nossos serviços:", "show_service", 25},
	domain.IntentProductInfo:      {"Estes são os nossos serviços:", "show_service", 25},
	domain.IntentPromotion:        {"Confira nossos serviços em destaque:", "show_service", 20},
	domain.IntentCancel:           {"Certo, vou verificar o cancelamento para você.", "", 15},
	domain.IntentPayment:          {"Aceitamos Pix, cartão (até 12x) e dinheiro.", "", 25},
	domain.IntentDelivery:         {"Vou verificar o status da sua solicitação.", "", 20},
	domain.IntentComplaint:        {"Lamentamos o ocorrido. Vamos resolver isso para você!", "", 15},
	domain.IntentPraise:           {"Muito obrigado pelo feedback positivo! Ficamos felizes em te atender.", "", 5},
	domain.IntentDoubt:            {"Claro, posso te ajudar com isso. O que você gostaria de saber?", "", 10},
	domain.IntentFeedback:         {"Obrigado pela sua opinião, ela é muito importante para nós.", "", 5},
	domain.IntentLocation:         {"Estamos no endereço informado no nosso cadastro. Posso ajudar em algo mais?", "", 10},
	domain.IntentOpeningHours:     {"Nosso horário de funcionamento está no nosso cadastro. Posso ajudar em algo mais?", "", 10},
	domain.IntentCompanyInfo:      {"Somos uma empresa dedicada a cuidar de você.", "", 10},
	domain.IntentRestart:          {"Vamos recomeçar! Como posso te ajudar?", "no_action", 5},
	domain.IntentStart:            {"Olá! Como posso te ajudar?", "no_action", 5},
}

var defaultReply = cannedReply{"Entendi. Pode me dar mais detalhes para que eu possa ajudar?", "", 0}

// Fake is a deterministic Generator keyed by the context's main intent.
type Fake struct{}

// NewFake returns a Fake generator.
func NewFake() *Fake { return &Fake{} }

// Name implements Generator.
func (*Fake) Name() string { return KindFake }

// Generate implements Generator.
func (*Fake) Generate(ctx context.Context, wctx *domain.WorkingContext) (*domain.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canned, ok := cannedReplies[wctx.MainIntent]
	if !ok {
		canned = defaultReply
	}

	reply := &domain.Reply{
		UserResponse: canned.text,
		TokenUsage: domain.TokenUsage{
			PromptTokens:     fakePromptTokens,
			CompletionTokens: fakeCompletionTokens + canned.boost,
			TotalTokens:      fakePromptTokens + fakeCompletionTokens + canned.boost,
		},
	}
	if canned.function != "" {
		reply.SystemResponse = map[string]any{"function": canned.function}
	}
	return reply, nil
}
