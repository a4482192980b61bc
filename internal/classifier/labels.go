package classifier

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// LabelSet is the ordered list of class names. The position of each label
// corresponds exactly to the model's output vector position, so the set must
// never be reordered after load.
type LabelSet []string

// DefaultLabels is the fallback list of the ten supported instrument classes,
// substituted when the label resource cannot be read.
func DefaultLabels() LabelSet {
	return LabelSet{
		"Acoustic Guitar",
		"Bass Guitar",
		"Cello",
		"Drums",
		"Electric Guitar",
		"Flute",
		"Piano",
		"Saxophone",
		"Trumpet",
		"Violin",
	}
}

// LoadLabels reads a newline-delimited label resource. It fails soft: on any
// read or parse failure the returned set is DefaultLabels and the error
// describes what went wrong so the caller can log a warning. The returned set
// is always usable.
func LoadLabels(path string) (LabelSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return DefaultLabels(), newError(KindLabelLoad, "failed to open label resource %q: %w", path, err)
	}
	defer file.Close()

	return LoadLabelsFrom(file)
}

// LoadLabelsFrom parses labels from r, one class name per line. A line may
// carry an optional leading numeric index token separated by whitespace; the
// token is stripped and the remainder, spaces included, becomes the label.
// Blank lines are dropped.
func LoadLabelsFrom(r io.Reader) (LabelSet, error) {
	var labels LabelSet

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		labels = append(labels, parseLabelLine(line))
	}

	if err := scanner.Err(); err != nil {
		return DefaultLabels(), newError(KindLabelLoad, "failed to read label resource: %w", err)
	}

	if len(labels) == 0 {
		return DefaultLabels(), newError(KindLabelLoad, "label resource contains no labels")
	}

	return labels, nil
}

func parseLabelLine(line string) string {
	token, rest, found := strings.Cut(line, " ")
	if !found {
		return line
	}

	if !isNumeric(token) {
		return line
	}

	return strings.TrimSpace(rest)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
