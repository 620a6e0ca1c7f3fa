// Package games holds design notes for the pairlock puzzle stages.
//
// Two players share one room: the theorist (role A) holds reference
// information, the practitioner (role B) holds the controls. Neither
// side has enough to solve a stage alone.
//
// Stage 1, cipher relay:
//   - The server picks a secret phrase and gives the letters to A only
//   - A's client renders them as cipher glyphs; A describes, B types
//   - B submits guesses until the normalized guess matches
//
// Stage 2, wire logic:
//   - Six labeled light nodes, a hidden set of real wire pairs
//   - B selects a pair; the server relays a question about it to A
//   - A answers YES/NO from the diagram; B sees the resulting verdict
//   - Only one question may be pending at a time
//   - B finally submits the full connection set, exact match required
//
// Stage 3, Morse word order:
//   - B holds shuffled word cards showing only Morse encodings
//   - A holds the static decoding table
//   - B submits the decoded words in target order
//
// Wrong stage 2/3 submissions cost a fixed deduction from the shared
// countdown; running out of time ends the run without a score.
package games
