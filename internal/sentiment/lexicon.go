package sentiment

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var positiveWords = set(
	// gratitude
	"obrigado", "obrigada", "grato", "grata", "agradecido", "agradecida", "agradeço",
	"valeu", "brigado", "brigada",
	// enthusiasm
	"excelente", "incrível", "fantástico", "fantástica", "maravilhoso", "maravilhosa",
	"espetacular", "sensacional", "impressionante", "perfeito", "perfeita", "show",
	"demais", "top", "irado", "irrado", "foda", "animal", "arrochado", "brabo",
	"brabíssimo", "fenomenal", "único", "única",
	// satisfaction
	"ótimo", "ótima", "bom", "boa", "gostei", "adoro", "amei", "apaixonado", "apaixonada",
	"satisfeito", "satisfeita", "feliz", "contente", "radiante", "eufórico", "eufórica",
	// relief
	"ufa", "alívio", "finalmente",
	// affection
	"amor", "amo", "lindo", "linda", "querido", "querida", "fofo", "fofa", "adorável",
	"especial", "querer", "beijo", "abraço", "carinho", "xodó", "paixão",
	// praise
	"parabéns", "congratulações", "sucesso", "campeão", "campeã", "gênio", "gênia",
	"inteligente", "sábio", "sábia", "competente", "eficiente",
	// agreement
	"concordo", "exatamente", "isso", "verdade", "realmente", "certíssimo", "certíssima",
	"claro", "sim", "óbvio", "lógico",
	// positive surprise
	"uau", "nossa", "caramba", "caraca", "eita", "nossinho",
)

var negativeWords = set(
	// anger and frustration
	"ruim", "péssimo", "péssima", "horrível", "terrível", "odeio", "detesto", "nojento",
	"nojinho", "asco", "repugnante", "vergonha", "vergonhoso", "vergonhosa", "ridículo",
	"ridícula", "inaceitável", "intolerável", "escroto", "escrota", "porcaria", "lixo",
	"merda", "bosta", "droga", "caralho", "desgraça", "inferno", "puta", "porra",
	// sadness and disappointment
	"decepcionado", "decepcionada", "triste", "chateado", "chateada", "frustrado",
	"frustrada", "desanimado", "desanimada", "deprimido", "deprimida", "desesperado",
	"desesperada", "desolado", "desolada", "desapontado", "desapontada", "choro",
	"chorando", "sofrendo", "angustiado", "angustiada", "machucado", "machucada",
	// fear and anxiety
	"medo", "assustado", "assustada", "apavorado", "apavorada", "preocupado",
	"preocupada", "nervoso", "nervosa", "ansioso", "ansiosa", "pânico", "desespero",
	"terror", "horror", "pesadelo", "trauma", "traumático", "traumática",
	// dissatisfaction
	"insatisfeito", "insatisfeita", "reclamo", "reclamação", "problema", "defeito",
	"falha", "erro", "atraso", "lento", "lenta", "demorado", "demorada", "preguiça",
	"cansado", "cansada", "exausto", "exausta", "esgotado", "esgotada",
	// disagreement
	"discordo", "errado", "errada", "mentira", "falso", "falsa", "não", "nunca",
	"jamais", "negativo", "absurdo", "absurda", "injusto", "injusta", "ilegal",
	// contempt
	"patético", "patética", "fracasso", "burro", "burra", "idiota", "imbecil",
	"estúpido", "estúpida", "incompetente", "inútil", "inúteis", "mediocre", "porco",
	"porca", "vagabundo", "vagabunda", "canalha", "pilantra",
)

// Idioms carry a fixed valence regardless of their parts.
var idioms = map[string]float64{
	"valeu a pena":                2.0,
	"salvou meu dia":              2.5,
	"muito bom":                   1.5,
	"top demais":                  2.0,
	"show de bola":                2.0,
	"nota mil":                    2.0,
	"nota 10":                     2.0,
	"maravilha":                   1.5,
	"sensação":                    1.5,
	"fiquei feliz":                1.8,
	"amei demais":                 2.2,
	"muito obrigado":              1.5,
	"muito obrigada":              1.5,
	"graças a deus":               1.5,
	"com certeza":                 1.0,
	"sem dúvida":                  1.0,
	"perda de tempo":              -2.0,
	"péssimo atendimento":         -2.5,
	"não recomendo":               -2.0,
	"horrível experiência":        -2.5,
	"pior coisa":                  -2.0,
	"odeio isso":                  -2.5,
	"que ódio":                    -2.0,
	"tô puto":                     -2.5,
	"tô puta":                     -2.5,
	"quero meu dinheiro de volta": -2.5,
}

var emojiValence = map[string]float64{
	"😊": 1.5, "😍": 2.0, "😂": 1.5, "🥰": 2.0, "😎": 1.3,
	"🤩": 2.0, "😘": 1.8, "👍": 1.5, "👏": 1.7, "🎉": 1.8,
	"❤️": 2.0, "❤": 2.0, "💖": 2.0, "✨": 1.3, "🙌": 1.7, "😁": 1.6,

	"😡": -2.5, "😠": -2.0, "🤬": -2.8, "😒": -1.5, "😞": -1.8,
	"😢": -2.0, "😭": -2.3, "👎": -2.0, "💔": -2.0, "😤": -2.0,
	"😨": -1.8, "😰": -1.7, "🤢": -2.0, "🤮": -2.3, "💩": -1.8,
}

var intensifiers = map[string]float64{
	"muito":         1.5,
	"demais":        1.8,
	"extremamente":  2.0,
	"totalmente":    1.7,
	"completamente": 1.7,
	"absolutamente": 1.9,
	"super":         1.6,
	"hiper":         1.8,
	"mega":          1.7,
	"tão":           1.5,
	"tanto":         1.5,
	"mais":          1.3,
	"incrivelmente": 1.9,
	"ridiculamente": 1.8,
}

// Multi-word attenuators are merged into a single token before scoring.
var attenuators = map[string]float64{
	"pouco":         0.5,
	"quase":         0.6,
	"meio":          0.7,
	"mais ou menos": 0.5,
	"nem tanto":     0.4,
	"um pouco":      0.6,
	"ligeiramente":  0.7,
	"parcialmente":  0.7,
}

var negations = set("não", "nunca", "jamais", "nem")

// Graded polarity of common words, in [-1, 1]. Lexicon words not listed here
// default to ±defaultPolarity.
var polarity = map[string]float64{
	"excelente": 1.0, "perfeito": 1.0, "perfeita": 1.0, "maravilhoso": 1.0, "maravilhosa": 1.0,
	"incrível": 0.9, "fantástico": 0.9, "fantástica": 0.9, "ótimo": 0.9, "ótima": 0.9,
	"amei": 0.9, "feliz": 0.8, "bom": 0.7, "boa": 0.7, "lindo": 0.7, "linda": 0.7,
	"gostei": 0.6, "satisfeito": 0.6, "satisfeita": 0.6, "eficiente": 0.6, "competente": 0.6,
	"top": 0.6, "show": 0.6, "obrigado": 0.5, "obrigada": 0.5, "legal": 0.5,
	"claro": 0.2, "isso": 0.1, "sim": 0.1, "nossa": 0.1,

	"péssimo": -1.0, "péssima": -1.0, "horrível": -1.0, "terrível": -1.0,
	"lixo": -0.9, "odeio": -0.9, "inaceitável": -0.9, "detesto": -0.8, "ridículo": -0.8,
	"incompetente": -0.8, "ruim": -0.7, "absurdo": -0.7, "inútil": -0.7,
	"decepcionado": -0.7, "decepcionada": -0.7, "triste": -0.6, "chateado": -0.6, "chateada": -0.6,
	"problema": -0.4, "erro": -0.4, "atraso": -0.4, "lento": -0.4, "lenta": -0.4, "demorado": -0.4,
	"nunca": -0.3, "não": -0.2,
}

const defaultPolarity = 0.4
