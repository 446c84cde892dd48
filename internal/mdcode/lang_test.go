package mdcode_test

import (
	"testing"

	"github.com/ezerfernandes/mdpatch/internal/mdcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLang(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":       "",
		"JS":     "javascript",
		"jsx":    "javascript",
		"ts":     "typescript",
		"TSX":    "typescript",
		"yml":    "yaml",
		"md":     "markdown",
		"Python": "python",
		"c++":    "c++",
	}

	for label, want := range tests {
		got := mdcode.NormalizeLang(label)
		assert.Equal(t, want, got, label)
		assert.Equal(t, got, mdcode.NormalizeLang(got), "idempotent for %q", label)
	}
}

func TestLangTableWith(t *testing.T) {
	t.Parallel()

	langs, err := mdcode.DefaultLangs.With(map[string]string{"Golang": "Go"})
	require.NoError(t, err)
	assert.Equal(t, "go", langs.Normalize("golang"))
	assert.Equal(t, "javascript", langs.Normalize("js"))
	assert.Equal(t, "golang", mdcode.NormalizeLang("golang"))

	_, err = mdcode.DefaultLangs.With(map[string]string{"ecma": "js"})
	require.Error(t, err)

	_, err = mdcode.DefaultLangs.With(map[string]string{"": "go"})
	require.Error(t, err)
}

func TestBlockAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		meta string
		want mdcode.Attrs
	}{
		{meta: "", want: mdcode.Attrs{}},
		{meta: "file=main.go region=setup", want: mdcode.Attrs{"file": "main.go", "region": "setup"}},
		{meta: "{file=main.go}", want: mdcode.Attrs{"file": "main.go"}},
		{meta: `{"file": "main.go", "n": 2}`, want: mdcode.Attrs{"file": "main.go", "n": float64(2)}},
		{meta: `title="a b" bare`, want: mdcode.Attrs{"title": "a b"}},
	}

	for _, tt := range tests {
		block := &mdcode.Block{Meta: tt.meta}

		attrs, err := block.Attrs()
		require.NoError(t, err, tt.meta)
		assert.Equal(t, tt.want, attrs, tt.meta)
	}

	attrs, err := (&mdcode.Block{Meta: `{"n": 2}`}).Attrs()
	require.NoError(t, err)
	assert.Equal(t, "2", attrs.Get("n"))
	assert.Equal(t, "", attrs.Get("missing"))
	assert.False(t, attrs.Has("missing"))

	_, err = (&mdcode.Block{Meta: `title="unclosed`}).Attrs()
	require.Error(t, err)
}
