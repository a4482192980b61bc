package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadLabelsFrom(t *testing.T) {
	src := "Acoustic Guitar\nCello\n\nDrums\n"

	labels, err := LoadLabelsFrom(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, LabelSet{"Acoustic Guitar", "Cello", "Drums"}, labels)
}

func TestLoadLabelsFrom_IndexPrefix(t *testing.T) {
	src := "0 Acoustic Guitar\n1 Bass Guitar\n2 Cello\n"

	labels, err := LoadLabelsFrom(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, LabelSet{"Acoustic Guitar", "Bass Guitar", "Cello"}, labels)
}

func TestLoadLabelsFrom_NonNumericPrefixKept(t *testing.T) {
	labels, err := LoadLabelsFrom(strings.NewReader("Electric Guitar\n"))
	require.NoError(t, err)
	require.Equal(t, LabelSet{"Electric Guitar"}, labels)
}

func TestLoadLabelsFrom_EmptyFallsBack(t *testing.T) {
	labels, err := LoadLabelsFrom(strings.NewReader("\n\n"))
	require.Error(t, err)
	require.Equal(t, KindLabelLoad, KindOf(err))
	require.Equal(t, DefaultLabels(), labels)
}

func TestLoadLabels_MissingFileFallsBack(t *testing.T) {
	labels, err := LoadLabels("testdata/does-not-exist.txt")
	require.Error(t, err)
	require.Equal(t, KindLabelLoad, KindOf(err))

	// The fallback list is always usable: exactly the ten supported classes
	// in their fixed order.
	require.Len(t, labels, 10)
	require.Equal(t, DefaultLabels(), labels)
	require.Equal(t, "Acoustic Guitar", labels[0])
	require.Equal(t, "Violin", labels[9])
}
