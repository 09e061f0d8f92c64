package api

import "bytes"

var nonFiniteTokens = []string{"NaN", "-Infinity", "Infinity"}

// sanitizeJSON quotes the bare NaN, Infinity and -Infinity literals Python's json
// module emits, so encoding/json accepts the document and model.Float decodes them.
// Text inside strings is left alone.
func sanitizeJSON(data []byte) []byte {
	if !bytes.Contains(data, []byte("NaN")) && !bytes.Contains(data, []byte("Infinity")) {
		return data
	}

	out := make([]byte, 0, len(data)+16)
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if token, ok := bareToken(data[i:]); ok {
			out = append(out, '"')
			out = append(out, token...)
			out = append(out, '"')
			i += len(token) - 1
			continue
		}
		out = append(out, c)
	}
	return out
}

func bareToken(rest []byte) (string, bool) {
	for _, token := range nonFiniteTokens {
		if bytes.HasPrefix(rest, []byte(token)) {
			return token, true
		}
	}
	return "", false
}
