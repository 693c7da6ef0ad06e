// Package cipher holds the illustrative puzzle ciphers used by the cipher games.
// None of this is cryptography; it only builds prompts and expected answers.
package cipher

import (
	"errors"
	"strings"
	"unicode"
)

// ErrUnknownSymbol is returned by DecodeMorse for a code with no table entry.
var ErrUnknownSymbol = errors.New("cipher: unknown morse symbol")

// Caesar rotates ASCII letters by shift positions, keeping case.
// Everything else passes through unchanged. Negative shifts rotate left.
func Caesar(text string, shift int) string {
	shift %= 26
	if shift < 0 {
		shift += 26
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune('a' + (r-'a'+rune(shift))%26)
		case r >= 'A' && r <= 'Z':
			b.WriteRune('A' + (r-'A'+rune(shift))%26)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Uncaesar reverses Caesar.
func Uncaesar(text string, shift int) string {
	return Caesar(text, -shift)
}

var morse = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".", 'F': "..-.",
	'G': "--.", 'H': "....", 'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.", 'Q': "--.-", 'R': ".-.",
	'S': "...", 'T': "-", 'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
}

var demorse = func() map[string]rune {
	m := make(map[string]rune, len(morse))
	for r, code := range morse {
		m[code] = r
	}
	return m
}()

// EncodeMorse spells text in Morse: letters separated by a space, words by " / ".
// Characters without a table entry are dropped.
func EncodeMorse(text string) string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		codes := make([]string, 0, len(w))
		for _, r := range strings.ToUpper(w) {
			if c, ok := morse[r]; ok {
				codes = append(codes, c)
			}
		}
		if len(codes) > 0 {
			out = append(out, strings.Join(codes, " "))
		}
	}
	return strings.Join(out, " / ")
}

// DecodeMorse reverses EncodeMorse and returns upper-case text.
func DecodeMorse(code string) (string, error) {
	words := strings.Split(code, "/")
	out := make([]string, 0, len(words))
	for _, w := range words {
		var b strings.Builder
		for _, sym := range strings.Fields(w) {
			r, ok := demorse[sym]
			if !ok {
				return "", errors.Join(ErrUnknownSymbol, errors.New(sym))
			}
			b.WriteRune(r)
		}
		if b.Len() > 0 {
			out = append(out, b.String())
		}
	}
	return strings.Join(out, " "), nil
}

// MorseKey renders the table entries for the letters in text, e.g. "H=.... I=..",
// used as the decryption-key assist.
func MorseKey(text string) string {
	seen := map[rune]bool{}
	var parts []string
	for _, r := range strings.ToUpper(text) {
		if unicode.IsSpace(r) || seen[r] {
			continue
		}
		if c, ok := morse[r]; ok {
			seen[r] = true
			parts = append(parts, string(r)+"="+c)
		}
	}
	return strings.Join(parts, " ")
}
