package filter

import "github.com/jonathan/unit-browser/internal/binning"

// AllLabel is the label of the token that clears the selection.
const AllLabel = "All"

// Alphabet lists the selectable letters in display order.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Token is one entry of the alphabet bar.
type Token struct {
	Letter   string `json:"letter"` // "" for All
	Label    string `json:"label"`
	Count    int    `json:"count"`
	Empty    bool   `json:"empty"`
	Selected bool   `json:"selected"`
}

// Tokens builds the All token followed by one token per letter A-Z.
// Empty letters are still listed and flagged.
func Tokens(bins binning.Bins, total int, selected string) []Token {
	tokens := make([]Token, 0, len(Alphabet)+1)
	tokens = append(tokens, Token{
		Label:    AllLabel,
		Count:    total,
		Empty:    total == 0,
		Selected: selected == "",
	})
	for _, r := range Alphabet {
		letter := string(r)
		count := bins.Count(letter)
		tokens = append(tokens, Token{
			Letter:   letter,
			Label:    letter,
			Count:    count,
			Empty:    count == 0,
			Selected: selected == letter,
		})
	}
	return tokens
}
