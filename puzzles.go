package main

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// PuzzleSet bundles the ground truth for one full three-stage run.
type PuzzleSet struct {
	Phrase    string   // stage 1 secret, uppercase letters only
	WireNodes []string // stage 2 light node labels
	RealPairs []WirePair
	Words     []string // stage 3 target phrase, in order
}

var puzzleCatalog = []PuzzleSet{
	{
		Phrase:    "SIGNAL",
		WireNodes: []string{"node1", "node2", "node3", "node4", "node5", "node6"},
		RealPairs: []WirePair{
			{From: "node1", To: "node4"},
			{From: "node2", To: "node6"},
		},
		Words: []string{"HOLD", "THE", "LINE"},
	},
	{
		Phrase:    "LANTERN",
		WireNodes: []string{"node1", "node2", "node3", "node4", "node5", "node6"},
		RealPairs: []WirePair{
			{From: "node2", To: "node3"},
			{From: "node4", To: "node5"},
			{From: "node1", To: "node6"},
		},
		Words: []string{"LIGHT", "EVERY", "DARK", "CORNER"},
	},
	{
		Phrase:    "COMPASS",
		WireNodes: []string{"node1", "node2", "node3", "node4", "node5", "node6"},
		RealPairs: []WirePair{
			{From: "node1", To: "node2"},
			{From: "node3", To: "node6"},
		},
		Words: []string{"TRUE", "NORTH", "NEVER", "MOVES"},
	},
	{
		Phrase:    "HARBOR",
		WireNodes: []string{"node1", "node2", "node3", "node4", "node5", "node6"},
		RealPairs: []WirePair{
			{From: "node2", To: "node5"},
			{From: "node3", To: "node4"},
			{From: "node1", To: "node5"},
		},
		Words: []string{"EVERY", "SHIP", "FINDS", "SHORE"},
	},
}

// pickPuzzle selects a catalog entry via crypto/rand, falling back to
// the first entry on a rand failure.
func pickPuzzle() PuzzleSet {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return puzzleCatalog[0]
	}
	return puzzleCatalog[int(b[0])%len(puzzleCatalog)]
}

// wireQuestion builds the natural-language prompt relayed to player A
// for one specific pair. The text is deterministic per pair so a
// re-asked pair would produce the same question.
func wireQuestion(from, to string) string {
	return fmt.Sprintf(
		"The practitioner wants to run a wire from %s to %s. According to your diagram, does current flow between these two terminals?",
		from, to,
	)
}

// Standard international Morse alphabet, letters and digits.
var morseAlphabet = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".",
	'F': "..-.", 'G': "--.", 'H': "....", 'I': "..", 'J': ".---",
	'K': "-.-", 'L': ".-..", 'M': "--", 'N': "-.", 'O': "---",
	'P': ".--.", 'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-", 'Y': "-.--",
	'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
}

// morseEncode renders a word as space-separated Morse symbols.
// Characters outside the alphabet are skipped.
func morseEncode(word string) string {
	var symbols []string
	for _, r := range strings.ToUpper(word) {
		if code, ok := morseAlphabet[r]; ok {
			symbols = append(symbols, code)
		}
	}
	return strings.Join(symbols, " ")
}

// normalizeGuess prepares a stage 1 or stage 3 submission for
// comparison: uppercase, all whitespace stripped.
func normalizeGuess(guess string) string {
	return strings.ToUpper(strings.Join(strings.Fields(guess), ""))
}
