package models

// Regulatory acts a complaint can relate to. The Thai names are the stored values.
const (
	ActDrug                = "ยา"
	ActFood                = "อาหาร"
	ActCosmetics           = "เครื่องสำอาง"
	ActMedicalDevice       = "เครื่องมือแพทย์"
	ActHazardous           = "วัตถุอันตราย"
	ActNarcotics           = "ยาเสพติดให้โทษ"
	ActPsychotropic        = "วัตถุออกฤทธิ์ต่อจิตและประสาท"
	ActHerbalProduct       = "ผลิตภัณฑ์สมุนไพร"
	ActHealthEstablishment = "สถานพยาบาล"
)

// ActVocabulary is the fixed list of acts, in display order.
var ActVocabulary = []string{
	ActDrug,
	ActFood,
	ActCosmetics,
	ActMedicalDevice,
	ActHazardous,
	ActNarcotics,
	ActPsychotropic,
	ActHerbalProduct,
	ActHealthEstablishment,
}

var knownActs = func() map[string]bool {
	m := make(map[string]bool, len(ActVocabulary))
	for _, a := range ActVocabulary {
		m[a] = true
	}
	return m
}()

// IsKnownAct reports whether a is in the act vocabulary.
func IsKnownAct(a string) bool {
	return knownActs[a]
}
