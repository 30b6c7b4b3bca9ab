// Package corpus merges recents, favorites and the catalog into the ordered
// candidate list that selection strategies work on.
package corpus

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/text/cases"

	pickerrors "github.com/thingsiplay/emojicherrypick/internal/errors"
)

// Corpus is the merged, deduplicated candidate list of one invocation.
type Corpus struct {
	Lines []string
}

// Text returns the lines joined by newlines, the form menu programs read.
func (c Corpus) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Len returns the number of lines.
func (c Corpus) Len() int {
	return len(c.Lines)
}

// Split splits a corpus line on its first space into token and description.
// Leading and trailing newlines are stripped from both parts. ok is false
// when the line has no space or either part ends up empty.
func Split(line string) (token, description string, ok bool) {
	token, description, found := strings.Cut(line, " ")
	if !found {
		return "", "", false
	}
	token = strings.Trim(token, "\r\n")
	description = strings.Trim(description, "\r\n")
	if token == "" || description == "" {
		return "", "", false
	}
	return token, description, true
}

// Join renders a token and description as a corpus line.
func Join(token, description string) string {
	return token + " " + description
}

// Lines splits text into lines after stripping surrounding newlines.
// Empty text yields no lines. CRLF line endings are accepted.
func Lines(text string) []string {
	text = strings.Trim(text, "\r\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Dedupe removes repeated lines, keeping the first occurrence.
func Dedupe(lines []string) []string {
	seen := make(map[string]bool, len(lines))
	result := make([]string, 0, len(lines))
	for _, l := range lines {
		if seen[l] {
			continue
		}
		seen[l] = true
		result = append(result, l)
	}
	return result
}

// ReverseDedupe reverses lines (newest first), removes repeats keeping the
// newest occurrence, and truncates to n entries. A negative n keeps all.
func ReverseDedupe(lines []string, n int) []string {
	reversed := make([]string, len(lines))
	for i, l := range lines {
		reversed[len(lines)-1-i] = l
	}
	result := Dedupe(reversed)
	if n >= 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// Merge builds the corpus: the newest recentsDisplayCount distinct recents,
// then favorites in file order, then the catalog in cached order. The whole
// sequence is deduplicated keeping first occurrences and empty lines are
// dropped. Any source may be empty.
func Merge(recents, favorites, catalog string, recentsDisplayCount int) Corpus {
	top := ReverseDedupe(Lines(recents), max(recentsDisplayCount, 0))

	all := make([]string, 0, len(top)+strings.Count(favorites, "\n")+strings.Count(catalog, "\n")+2)
	all = append(all, top...)
	all = append(all, Lines(favorites)...)
	all = append(all, Lines(catalog)...)

	merged := Dedupe(all)
	lines := merged[:0]
	for _, l := range merged {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return Corpus{Lines: lines}
}

// Sources names the optional files that feed the corpus.
// An empty path means the source is disabled.
type Sources struct {
	RecentsPath   string
	FavoritesPath string
	CatalogPath   string
	RecentsSize   int
}

// Load reads the configured sources and merges them.
// Disabled or missing files contribute nothing.
func Load(src Sources) (Corpus, error) {
	recents, err := readOptional(src.RecentsPath)
	if err != nil {
		return Corpus{}, err
	}
	favorites, err := readOptional(src.FavoritesPath)
	if err != nil {
		return Corpus{}, err
	}
	catalog, err := readOptional(src.CatalogPath)
	if err != nil {
		return Corpus{}, err
	}
	return Merge(recents, favorites, catalog, src.RecentsSize), nil
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", pickerrors.NewInternal(err)
	}
	return string(data), nil
}

// Fold returns the Unicode case-folded form of s for case-insensitive
// matching. Only working copies are folded; corpus lines are never changed.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// FoldLines folds every line and returns the folded copy together with a
// lookup from folded line back to the first canonical line that produced it.
func FoldLines(lines []string) ([]string, map[string]string) {
	caser := cases.Fold()
	folded := make([]string, len(lines))
	back := make(map[string]string, len(lines))
	for i, l := range lines {
		f := caser.String(l)
		folded[i] = f
		if _, ok := back[f]; !ok {
			back[f] = l
		}
	}
	return folded, back
}
