package intent

import "github.com/ashureev/chatengine/internal/domain"

type trigger struct {
	intent  domain.Intent
	words   []string
	phrases []string
}

// Word and phrase triggers. Both are matched as substrings of the normalized message.
var triggers = []trigger{
	{
		intent:  domain.IntentWelcome,
		words:   []string{"oi", "olá", "ola", "opa", "eae", "fala", "salve", "bom dia", "boa tarde", "boa noite"},
		phrases: []string{"e aí", "fala comigo", "to aqui", "cheguei"},
	},
	{
		intent:  domain.IntentTransferHuman,
		words:   []string{"atendente", "humano", "pessoa", "gerente", "alguém", "funcionário"},
		phrases: []string{"falar com alguém", "quero ajuda de verdade", "quero falar com gente", "me chama um atendente", "me passa pro humano"},
	},
	{
		intent:  domain.IntentRestart,
		words:   []string{"bot", "robô", "chatbot", "sistema"},
		phrases: []string{"atendimento automático", "voltar para o chatbot", "reiniciar conversa", "começar do zero"},
	},
	{
		intent:  domain.IntentCompanyInfo,
		words:   []string{"endereço", "telefone", "contato", "whatsapp", "funcionamento", "dias úteis", "empresa", "trabalham", "trabalha"},
		phrases: []string{"onde fica", "como chegar", "formas de contato", "qual o telefone", "qual o zap", "como funciona", "quais os horários"},
	},
	{
		intent:  domain.IntentScheduleSlotInfo,
		words:   []string{"agendar", "marcar", "novo", "disponível", "disponivel"},
		phrases: []string{"quero marcar consulta", "tem horário disponível", "agendar nova sessão", "quero marcar um horário"},
	},
	{
		intent:  domain.IntentScheduleInfo,
		words:   []string{"agendamentos", "marcados", "meu", "minha", "horário", "consulta"},
		phrases: []string{"meu agendamento", "meu horário marcado", "quero ver meus agendamentos"},
	},
	{
		intent:  domain.IntentCancel,
		words:   []string{"cancelar", "desmarcar", "adiar", "remarcar", "não vou", "não posso"},
		phrases: []string{"não posso ir", "não vou conseguir", "quero cancelar", "remarcar minha consulta", "muda meu horário"},
	},
	{
		intent:  domain.IntentPayment,
		words:   []string{"pix", "boleto", "pagar", "cartão", "preço", "valor", "custo", "grátis", "pagamento"},
		phrases: []string{"quanto custa", "como pago", "tem desconto", "tem parcelamento"},
	},
	{
		intent:  domain.IntentOrderStatus,
		words:   []string{"pedido", "status", "andamento", "confirmado", "recebido"},
		phrases: []string{"já chegou", "foi aprovado", "confirmaram meu pedido", "status da consulta"},
	},
	{
		intent:  domain.IntentDelivery,
		words:   []string{"entrega", "frete", "enviar", "transportadora"},
		phrases: []string{"quando chega", "já saiu para entrega", "vai entregar", "tem rastreio"},
	},
	{
		intent:  domain.IntentProductInfo,
		words:   []string{"produto", "item", "mercadoria", "coisa"},
		phrases: []string{"fala do produto", "me mostra os produtos", "vende o que", "o que tem pra vender"},
	},
	{
		intent:  domain.IntentServiceInfo,
		words:   []string{"serviço", "serviços", "atendimento", "oferta"},
		phrases: []string{"que serviços tem", "fala dos atendimentos", "qual o serviço"},
	},
	{
		intent:  domain.IntentLocation,
		words:   []string{"endereço", "local", "localização", "mapa"},
		phrases: []string{"onde é", "onde fica", "como chegar", "tem unidade perto"},
	},
	{
		intent:  domain.IntentOpeningHours,
		words:   []string{"horário", "funciona", "abre", "fecha"},
		phrases: []string{"que horas abre", "qual horário", "funciona domingo", "até que horas", "horário de funcionamento", "quais horários"},
	},
	{
		intent:  domain.IntentPromotion,
		words:   []string{"promoção", "desconto", "oferta", "barato", "cupom"},
		phrases: []string{"tem desconto", "tá mais barato", "alguma promoção", "tem brinde"},
	},
	{
		intent:  domain.IntentComplaint,
		words:   []string{"reclamar", "problema", "ruim", "péssimo", "insuportável"},
		phrases: []string{"tô insatisfeito", "isso não funciona", "péssimo atendimento", "vou reclamar no procon"},
	},
	{
		intent:  domain.IntentPraise,
		words:   []string{"obrigado", "valeu", "bom", "ótimo", "excelente", "top"},
		phrases: []string{"curti demais", "ótimo atendimento", "parabéns", "vocês são 10"},
	},
	{
		intent:  domain.IntentDoubt,
		words:   []string{"duvida", "como", "o que", "qual", "quando", "porque", "por que", "onde"},
		phrases: []string{"tenho uma dúvida", "não entendi", "me explica", "como funciona"},
	},
	{
		intent:  domain.IntentFeedback,
		words:   []string{"feedback", "avaliação", "opinião"},
		phrases: []string{"posso dar uma sugestão", "tenho uma crítica", "quero avaliar"},
	},
	{
		intent:  domain.IntentCloseChat,
		words:   []string{"sair", "encerrar", "fechar", "acabou", "terminar", "despedir", "tchau", "adeus"},
		phrases: []string{"pode encerrar", "tchau", "até mais", "valeu, já resolvi", "nada mais", "até logo"},
	},
	{
		intent:  domain.IntentStart,
		words:   []string{"começar", "iniciar", "início"},
		phrases: []string{"vamos começar", "começa aí", "pode iniciar"},
	},
}

// Extracted keywords that map directly to an intent.
var keywordIntents = map[string]domain.Intent{
	"oi":        domain.IntentWelcome,
	"olá":       domain.IntentWelcome,
	"ola":       domain.IntentWelcome,
	"tudo bem":  domain.IntentWelcome,
	"bom dia":   domain.IntentWelcome,
	"boa tarde": domain.IntentWelcome,
	"boa noite": domain.IntentWelcome,

	"atendente": domain.IntentTransferHuman,
	"humano":    domain.IntentTransferHuman,

	"reiniciar": domain.IntentRestart,

	"empresa": domain.IntentCompanyInfo,
	"contato": domain.IntentCompanyInfo,

	"agendamentos": domain.IntentScheduleInfo,
	"consultas":    domain.IntentScheduleInfo,
	"marcadas":     domain.IntentScheduleInfo,
	"verificar":    domain.IntentScheduleInfo,

	"agendar":   domain.IntentScheduleSlotInfo,
	"consultar": domain.IntentScheduleSlotInfo,
	"marcar":    domain.IntentScheduleSlotInfo,

	"cancelar":  domain.IntentCancel,
	"desmarcar": domain.IntentCancel,

	"pagar": domain.IntentPayment,
	"valor": domain.IntentPayment,

	"pedido": domain.IntentOrderStatus,
	"status": domain.IntentOrderStatus,

	"entrega": domain.IntentDelivery,
	"frete":   domain.IntentDelivery,

	"produto": domain.IntentProductInfo,
	"item":    domain.IntentProductInfo,

	"serviço":     domain.IntentServiceInfo,
	"atendimento": domain.IntentServiceInfo,

	"endereço": domain.IntentLocation,
	"local":    domain.IntentLocation,

	"horário":       domain.IntentOpeningHours,
	"funcionamento": domain.IntentOpeningHours,

	"promoção": domain.IntentPromotion,
	"desconto": domain.IntentPromotion,

	"reclamação": domain.IntentComplaint,
	"problema":   domain.IntentComplaint,

	"elogio":   domain.IntentPraise,
	"parabéns": domain.IntentPraise,

	"dúvida":   domain.IntentDoubt,
	"pergunta": domain.IntentDoubt,

	"feedback":  domain.IntentFeedback,
	"avaliação": domain.IntentFeedback,

	"encerrar": domain.IntentCloseChat,
	"sair":     domain.IntentCloseChat,

	"começar": domain.IntentStart,
	"iniciar": domain.IntentStart,
}

// Informal spellings expanded token by token before matching.
var contractions = map[string]string{
	"vc":    "você",
	"vcs":   "vocês",
	"q":     "que",
	"pq":    "porque",
	"tb":    "também",
	"tá":    "está",
	"ta":    "está",
	"tô":    "estou",
	"qdo":   "quando",
	"qnt":   "quanto",
	"qnto":  "quanto",
	"qntas": "quantas",
	"qntos": "quantos",
	"cmg":   "comigo",
	"blz":   "beleza",
	"pfv":   "por favor",
	"pls":   "por favor",
	"obg":   "obrigado",
	"agr":   "agora",
	"hj":    "hoje",
}

var priority = []domain.Intent{
	domain.IntentTransferHuman,
	domain.IntentScheduleInfo,
	domain.IntentScheduleSlotInfo,
	domain.IntentCancel,
	domain.IntentPayment,
	domain.IntentOrderStatus,
	domain.IntentDelivery,
	domain.IntentProductInfo,
	domain.IntentServiceInfo,
	domain.IntentCompanyInfo,
	domain.IntentLocation,
	domain.IntentOpeningHours,
	domain.IntentPromotion,
	domain.IntentComplaint,
	domain.IntentDoubt,
	domain.IntentPraise,
	domain.IntentFeedback,
	domain.IntentCloseChat,
	domain.IntentRestart,
	domain.IntentWelcome,
	domain.IntentStart,
	domain.IntentAbusive,
	domain.IntentGeneral,
}
