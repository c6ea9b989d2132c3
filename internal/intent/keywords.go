package intent

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const negatedPrefix = "não_"

var stopWords = setOf(
	"a", "à", "ao", "aos", "as", "às", "o", "os", "um", "uma", "uns", "umas",
	"de", "do", "da", "dos", "das", "no", "na", "nos", "nas", "num", "numa",
	"em", "por", "pelo", "pela", "pelos", "pelas", "para", "pra", "pro", "com", "sem",
	"e", "ou", "mas", "se", "que", "é", "ser", "foi", "era", "são", "está", "estão",
	"eu", "tu", "ele", "ela", "nós", "vós", "eles", "elas", "você", "vocês", "me", "te",
	"lhe", "nos", "vos", "mim", "comigo", "seu", "sua", "seus", "suas", "meus", "minhas",
	"este", "esta", "esse", "essa", "isto", "aquilo", "aquela", "isso",
	"já", "também", "muito", "muita", "mais", "menos", "bem", "só", "ainda", "aqui", "lá",
	"tem", "ter", "há", "vai", "vou", "ir", "fazer", "faz", "pode", "posso",
)

var irrelevantWords = setOf(
	"preciso", "quero", "gostaria", "de", "estou", "vou", "em", "para",
	"a", "o", "na", "nao", "com", "por", "que", "como", "qual", "quando",
	"onde", "porque", "meu", "minha", "isso", "aquele", "algum", "todo",
)

var irrelevantNouns = setOf(
	"casa", "ontem", "hoje", "amanhã", "dia", "semana", "mês", "ano",
	"lugar", "coisa", "pessoa", "momento", "vez", "tipo", "parte",
)

var negationTerms = setOf("não", "nem", "nunca", "jamais", "tampouco")

// Synonyms collapse related terms onto one canonical keyword.
var synonyms = map[string]string{
	"celular": "smartphone", "telefone": "smartphone", "móvel": "smartphone",
	"computador": "notebook", "laptop": "notebook", "pc": "notebook",
	"tv": "televisão", "monitor": "televisão",
	"fone": "headphone", "headset": "headphone", "auscultador": "headphone",
	"app": "aplicativo", "software": "aplicativo", "programa": "aplicativo",

	"médico": "doutor", "dr": "profissional de saúde", "doutora": "doutor", "doutor": "profissional de saúde",
	"hospital": "clínica", "posto": "clínica", "consultório": "clínica",
	"remedio": "medicamento", "remédio": "medicamento",
	"psicologo": "profissional de saúde", "psicóloga": "profissional de saúde", "terapeuta": "profissional de saúde",
	"fisio": "fisioterapeuta", "fisioterapia": "fisioterapeuta",
	"dentista": "odontólogo", "odonto": "odontólogo",
	"enfermeiro": "profissional de saúde", "enfermagem": "profissional de saúde",
	"nutricionista": "profissional de saúde", "nutri": "profissional de saúde",
	"consulta": "atendimento médico", "sessão": "atendimento médico", "exame": "procedimento médico",
	"ubs": "unidade básica", "hospitalar": "internação",

	"banco": "instituição financeira", "financiamento": "empréstimo",
	"crédito": "empréstimo", "dinheiro": "capital", "valor": "montante",

	"loja": "estabelecimento", "mercado": "supermercado", "comercio": "comércio",
	"produto": "item", "mercadoria": "item",

	"funcionário": "colaborador", "empregado": "colaborador", "trabalhador": "colaborador",
	"contratação": "admissão", "demissão": "rescisão",

	"obra": "construção", "prédio": "edifício",

	"escola": "instituição de ensino", "universidade": "faculdade", "professor": "docente",

	"conserto": "reparo", "consertar": "reparo", "arrumar": "reparo",
	"manutenção": "reparo", "troca": "substituição", "substituir": "substituição",

	"falar": "contato", "conversar": "contato", "atendimento": "suporte",
	"ajuda": "suporte", "dúvida": "suporte", "problema": "suporte",

	"preço": "valor", "custo": "valor", "comprar": "venda", "adquirir": "venda",
}

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// ExtractKeywords returns the content words of message, canonicalized through
// the synonym table, in order of first appearance. When the message contains a
// negation every keyword is prefixed with "não_".
func ExtractKeywords(message string) []string {
	text := cases.Lower(language.BrazilianPortuguese).String(norm.NFC.String(message))
	tokens := wordRe.FindAllString(text, -1)

	negated := false
	for _, t := range tokens {
		if negationTerms[t] {
			negated = true
			break
		}
	}

	var out []string
	seen := make(map[string]bool)
	for _, t := range tokens {
		if negationTerms[t] || stopWords[t] || len([]rune(t)) < 2 {
			continue
		}
		if full, ok := contractions[t]; ok && !strings.Contains(full, " ") {
			t = full
		}
		if s, ok := synonyms[t]; ok {
			t = s
		}
		if irrelevantWords[t] || irrelevantNouns[t] || stopWords[t] {
			continue
		}
		if negated {
			t = negatedPrefix + t
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
