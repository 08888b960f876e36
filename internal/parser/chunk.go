package parser

import (
	"strings"
	"unicode"

	"document-analyzer/internal/models"
)

// Chunks splits content into overlapping chunks of at most maxChars runes.
// ChunkID is 1-based and Offset is the rune offset of the chunk's window.
func Chunks(content string, maxChars, overlapChars int) []models.Chunk {
	var chunks []models.Chunk
	for i, c := range chunkContent(content, maxChars, overlapChars) {
		chunks = append(chunks, models.Chunk{
			Content: c.text,
			Offset:  c.offset,
			ChunkID: i + 1,
		})
	}
	return chunks
}

type span struct {
	text   string
	offset int
}

// chunk content into chunks with maxChars and overlapChars
func chunkContent(content string, maxChars, overlapChars int) []span {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	runes := []rune(strings.TrimSpace(content))
	contentLen := len(runes)
	if contentLen == 0 {
		return nil
	}
	if contentLen <= maxChars {
		return []span{{text: string(runes), offset: 0}}
	}

	var chunks []span
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		// prefer a break on whitespace or a full stop in the last 10% of the window
		if end < contentLen {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if unicode.IsSpace(runes[i]) || runes[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, span{text: chunk, offset: start})
		}
		if end >= contentLen {
			break
		}

		// next window starts from the actual break so nothing between windows is skipped
		start = max(end-overlapChars, start+1)
	}
	return chunks
}
