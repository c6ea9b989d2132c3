package intent

// SectorOther is reported when no sector term appears in the keywords.
const SectorOther = "Outros"

var sectors = []struct {
	name  string
	terms []string
}{
	{"Tecnologia", []string{"smartphone", "notebook", "aplicativo", "tecnologia", "software"}},
	{"Saúde", []string{"doutor", "medicamento", "clínica", "saúde", "hospital"}},
	{"Finanças", []string{"banco", "empréstimo", "capital", "finanças", "pagamento"}},
	{"Varejo", []string{"loja", "produto", "venda", "comércio", "supermercado"}},
	{"RH", []string{"colaborador", "admissão", "rescisão", "recrutamento"}},
	{"Construção", []string{"obra", "construção", "edifício", "residência"}},
	{"Educação", []string{"escola", "faculdade", "docente", "ensino"}},
}

// Sector guesses the business sector a message refers to from its extracted
// keywords. Ties go to the sector listed first.
func Sector(keywords []string) string {
	best, bestCount := SectorOther, 0
	for _, s := range sectors {
		n := 0
		for _, k := range keywords {
			for _, term := range s.terms {
				if k == term {
					n++
				}
			}
		}
		if n > bestCount {
			best, bestCount = s.name, n
		}
	}
	return best
}
