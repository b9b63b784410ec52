package shortcode

import (
	cryptorand "crypto/rand"
	"math/big"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Alphabet for opaque codes, excluding ambiguous characters: 0, O, I, l, 1
const randomAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
const randomCodeLength = 8

const maxWordCodeLength = 12
const shortWordLength = 5

// Attempt thresholds: word codes first, numbered codes for variety,
// then opaque random codes once word generation keeps failing.
const wordAttempts = 8
const numberedAttempts = 10

// Generator produces short-code candidates. Uniqueness is never checked
// here; the caller verifies candidates against the store and retries.
type Generator struct {
	denylist []string
}

func NewGenerator(denylist []string) *Generator {
	lowered := make([]string, len(denylist))
	for i, word := range denylist {
		lowered[i] = strings.ToLower(word)
	}
	return &Generator{denylist: lowered}
}

// Generate returns a candidate for the given retry attempt. Early attempts
// produce plain word codes, later ones numbered codes, and the tail falls
// back to opaque random codes.
func (g *Generator) Generate(attempt int) string {
	switch {
	case attempt < wordAttempts:
		return g.WordCode()
	case attempt < numberedAttempts:
		return g.NumberedCode()
	default:
		return g.RandomCode()
	}
}

// WordCode builds a memorable two-word code, e.g. "bluecat" or "quickrun".
func (g *Generator) WordCode() string {
	first, second := pickPair(adjectives, nouns, verbs)
	code := first + second
	if len(code) > maxWordCodeLength {
		return shortCombination()
	}
	return code
}

// NumberedCode appends a number for extra variety, e.g. "bluecat42".
func (g *Generator) NumberedCode() string {
	code := g.WordCode()
	if len(code) > 8 {
		code = shortCombination()
	}
	return code + strconv.Itoa(rand.IntN(99)+1)
}

// RandomCode returns a fixed-length opaque code drawn with crypto/rand.
func (g *Generator) RandomCode() string {
	b := make([]byte, randomCodeLength)
	alphabetLen := big.NewInt(int64(len(randomAlphabet)))
	for i := range b {
		n, err := cryptorand.Int(cryptorand.Reader, alphabetLen)
		if err != nil {
			// crypto/rand reading from the OS never fails in practice
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = randomAlphabet[n.Int64()]
	}
	return string(b)
}

// IsAppropriate reports whether the code contains none of the denylisted
// substrings. Pure predicate; callers retry generation on a miss.
func (g *Generator) IsAppropriate(code string) bool {
	lowered := strings.ToLower(code)
	for _, word := range g.denylist {
		if strings.Contains(lowered, word) {
			return false
		}
	}
	return true
}

func pickPair(adjs, nns, vbs []string) (string, string) {
	switch rand.IntN(3) {
	case 0:
		return adjs[rand.IntN(len(adjs))], nns[rand.IntN(len(nns))]
	case 1:
		return vbs[rand.IntN(len(vbs))], nns[rand.IntN(len(nns))]
	default:
		return adjs[rand.IntN(len(adjs))], vbs[rand.IntN(len(vbs))]
	}
}

// shortCombination retries with words capped at 5 characters so the
// result stays readable.
func shortCombination() string {
	first, second := pickPair(
		filterByLength(adjectives, shortWordLength),
		filterByLength(nouns, shortWordLength),
		filterByLength(verbs, shortWordLength),
	)
	return first + second
}

func filterByLength(words []string, maxLen int) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) <= maxLen {
			out = append(out, w)
		}
	}
	return out
}
