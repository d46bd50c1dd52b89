package align

import "fmt"

// Coord identifies the coordinate system a tokenizer reported offsets in.
// Mixing systems is the classic silent-bug source in this domain: a single
// non-ASCII character desynchronizes character indices from byte indices,
// so every span must be converted to byte offsets before any comparison.
type Coord int

const (
	// CoordByte means offsets index into the UTF-8 encoding of the text.
	CoordByte Coord = iota
	// CoordChar means offsets index runes, as produced by most Python
	// tokenizer libraries' offset mappings.
	CoordChar
)

// String returns the config-file spelling of the coordinate system.
func (c Coord) String() string {
	switch c {
	case CoordByte:
		return "byte"
	case CoordChar:
		return "char"
	default:
		return fmt.Sprintf("coord(%d)", int(c))
	}
}

// ParseCoord parses the config-file spelling of a coordinate system.
func ParseCoord(s string) (Coord, error) {
	switch s {
	case "byte":
		return CoordByte, nil
	case "char":
		return CoordChar, nil
	default:
		return 0, fmt.Errorf("unknown coordinate system %q (want byte or char)", s)
	}
}

// Span is one token's half-open [Start, End) offset pair in some Coord.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the span covers no text. Tokenizers emit empty
// spans for special/added tokens; extractors discard them.
func (s Span) Empty() bool { return s.Start == s.End }

// ToByteSpans converts spans expressed in coord into byte offsets over
// text. Byte-coordinate spans are validated against len(text) and returned
// as-is. Character-coordinate spans are mapped through a rune-index table;
// an offset past the rune count is a conversion error, not a clamp, since
// it indicates the tokenizer saw different text than we did.
func ToByteSpans(text string, spans []Span, coord Coord) ([]Span, error) {
	switch coord {
	case CoordByte:
		for _, sp := range spans {
			if sp.Start < 0 || sp.End < sp.Start || sp.End > len(text) {
				return nil, &MalformedInputError{
					Reason: fmt.Sprintf("byte span [%d,%d) out of range for %d-byte text", sp.Start, sp.End, len(text)),
				}
			}
		}
		out := make([]Span, len(spans))
		copy(out, spans)
		return out, nil

	case CoordChar:
		// runeStart[i] is the byte offset of the i-th rune; the final
		// entry is len(text) so a char offset equal to the rune count
		// maps to the end of the text.
		runeStart := make([]int, 0, len(text)+1)
		for i := range text {
			runeStart = append(runeStart, i)
		}
		runeStart = append(runeStart, len(text))

		out := make([]Span, len(spans))
		for i, sp := range spans {
			if sp.Start < 0 || sp.End < sp.Start || sp.End >= len(runeStart) {
				return nil, &MalformedInputError{
					Reason: fmt.Sprintf("char span [%d,%d) out of range for %d-rune text", sp.Start, sp.End, len(runeStart)-1),
				}
			}
			out[i] = Span{Start: runeStart[sp.Start], End: runeStart[sp.End]}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown coordinate system %v", coord)
	}
}
