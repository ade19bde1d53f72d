package llm

import "strings"

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// StripThinkBlocks removes <think>...</think> reasoning blocks some models
// emit ahead of their answer. Nested blocks are removed whole; an unclosed
// block drops everything after its opening tag. The result is trimmed.
func StripThinkBlocks(content string) string {
	if !strings.Contains(content, thinkOpen) {
		return content
	}

	var out strings.Builder
	depth := 0
	for len(content) > 0 {
		open := strings.Index(content, thinkOpen)
		closeIdx := strings.Index(content, thinkClose)

		if depth == 0 {
			if open < 0 {
				out.WriteString(content)
				break
			}
			out.WriteString(content[:open])
			content = content[open+len(thinkOpen):]
			depth++
			continue
		}

		switch {
		case closeIdx < 0:
			content = ""
		case open >= 0 && open < closeIdx:
			content = content[open+len(thinkOpen):]
			depth++
		default:
			content = content[closeIdx+len(thinkClose):]
			depth--
		}
	}
	return strings.TrimSpace(out.String())
}
