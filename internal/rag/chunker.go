package rag

import "iter"

// Windows yields overlapping character windows of text. Each window holds at
// most size runes and starts size-overlap runes after the previous one. A tail
// no longer than overlap is already covered by the previous window and is not
// emitted again. Invalid parameters yield nothing; use Split to get an error.
func Windows(text string, size, overlap int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if overlap < 0 || size <= overlap {
			return
		}
		runes := []rune(text)
		step := size - overlap
		for start := 0; start < len(runes); start += step {
			if start > 0 && len(runes)-start <= overlap {
				return
			}
			end := min(start+size, len(runes))
			if !yield(string(runes[start:end])) {
				return
			}
		}
	}
}

func Split(text string, size, overlap int) ([]string, error) {
	if overlap < 0 || size <= overlap {
		return nil, ErrInvalidChunking
	}
	var out []string
	for piece := range Windows(text, size, overlap) {
		out = append(out, piece)
	}
	return out, nil
}
