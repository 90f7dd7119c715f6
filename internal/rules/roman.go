package rules

// romanLevels covers every level numeral the rules document uses. The
// document never goes past V, so a closed lookup beats a general
// numeral parser here.
var romanLevels = map[string]int{
	"I":   1,
	"II":  2,
	"III": 3,
	"IV":  4,
	"V":   5,
}

// ParseRoman converts a level numeral token ("I" through "V") to its
// integer value. Any other token, including lowercase or numerals past
// V, reports ok=false.
func ParseRoman(token string) (int, bool) {
	level, ok := romanLevels[token]
	return level, ok
}
