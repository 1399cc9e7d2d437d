package diagfmt

import (
	"fmt"

	"fortio.org/safecast"

	"irgen/internal/source"
)

// lineStartOffset returns the byte offset where 1-based line starts.
func lineStartOffset(f *source.File, line uint32) uint32 {
	if line <= 1 {
		return 0
	}
	idx := line - 2
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return contentLen(f)
}

// lineEndOffset returns the offset of the newline ending line, or the end
// of the file for the last line.
func lineEndOffset(f *source.File, line uint32) uint32 {
	if line == 0 {
		return 0
	}
	idx := line - 1
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx]
	}
	return contentLen(f)
}

func contentLen(f *source.File) uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return n
}

// lineText returns the text of a 1-based line without its newline.
func lineText(f *source.File, line uint32) string {
	start := lineStartOffset(f, line)
	end := max(lineEndOffset(f, line), start)
	return string(f.Content[start:end])
}
