package profanity

type entry struct {
	text  string
	level Level
}

// Single terms, matched on word boundaries.
var lexicon = []entry{
	{"droga", Mild},
	{"putz", Mild},
	{"cacete", Mild},

	{"porra", Moderate},
	{"merda", Moderate},
	{"caralho", Moderate},
	{"bosta", Moderate},
	{"foda", Moderate},
	{"pau", Moderate},
	{"leitar", Moderate},
	{"babaca", Moderate},
	{"otário", Moderate},
	{"otária", Moderate},

	{"cu", Severe},
	{"cuzinho", Severe},
	{"buceta", Severe},
	{"xereca", Severe},
	{"xerecão", Severe},
	{"xerequinha", Severe},
	{"piroca", Severe},
	{"puta", Severe},
	{"vadia", Severe},
	{"foder", Severe},
	{"piranha", Severe},
	{"prostituta", Severe},

	{"viado", HateSpeech},
	{"retardado", HateSpeech},
	{"bicha", HateSpeech},
	{"sapatão", HateSpeech},
}

// Multi-word or compound expressions, matched as plain substrings.
var phrases = []entry{
	{"vai se foder", Severe},
	{"vai se fuder", Severe},
	{"vai tomar no cu", Severe},
	{"vai te tomar no cu", Severe},
	{"olho do cu", Severe},
	{"olho do seu cu", Severe},
	{"filho da puta", Severe},
	{"filha da puta", Severe},
	{"seu cu", Severe},
	{"que merda", Mild},
	{"que porra", Moderate},
	{"me fudi", Moderate},
	{"que bosta", Moderate},
	{"arrombado", Severe},
	{"escroto", Moderate},
	{"pau no cu", Severe},
	{"foda-se", Severe},
}

// Known spellings that count as the base term.
var variants = map[string][]string{
	"porra":   {"porr", "porraa", "porraaa"},
	"caralho": {"carai", "caralhoo", "karalho"},
	"foder":   {"fuder", "fodê", "fudê"},
	"puta":    {"putinha", "putão"},
	"merda":   {"merd", "merdaa"},
}

// Leetspeak substitutions applied before detection.
var leet = map[rune]rune{
	'4': 'a',
	'@': 'a',
	'3': 'e',
	'1': 'i',
	'0': 'o',
	'5': 's',
	'7': 't',
	'+': 't',
}
