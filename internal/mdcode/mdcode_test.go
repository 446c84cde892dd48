package mdcode_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ezerfernandes/mdpatch/internal/mdcode"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var backticks = strings.NewReplacer("''''", "````", "'''", "```")

// md lets test documents use ''' and '''' in place of backtick fences.
func md(s string) []byte {
	return []byte(backticks.Replace(s))
}

var nested = md(`# Title

'''js {1}
let a = 1
'''

- item

  '''go
  package main
  '''

> ~~~~yaml
> a: 1
> ~~~~
`)

func TestUnfenceNested(t *testing.T) {
	t.Parallel()

	blocks, err := mdcode.Unfence(nested)
	require.NoError(t, err)

	want := mdcode.Blocks{
		{
			Index: 0, Lang: "javascript", Label: "js", Meta: "{1}", Code: "let a = 1",
			Span:      mdcode.Span{Start: mdcode.Position{Line: 3, Column: 1, Offset: 9}, End: mdcode.Position{Line: 6, Column: 1, Offset: 33}},
			FenceChar: '`', FenceLen: 3,
		},
		{
			Index: 1, Lang: "go", Label: "go", Code: "package main",
			Span:      mdcode.Span{Start: mdcode.Position{Line: 9, Column: 3, Offset: 44}, End: mdcode.Position{Line: 12, Column: 1, Offset: 71}},
			FenceChar: '`', FenceLen: 3,
		},
		{
			Index: 2, Lang: "yaml", Label: "yaml", Code: "a: 1",
			Span:      mdcode.Span{Start: mdcode.Position{Line: 13, Column: 3, Offset: 74}, End: mdcode.Position{Line: 16, Column: 1, Offset: 97}},
			FenceChar: '~', FenceLen: 4,
		},
	}

	if diff := cmp.Diff(want, blocks, cmpopts.IgnoreUnexported(mdcode.Block{})); diff != "" {
		t.Errorf("Unfence() mismatch (-want +got):\n%s", diff)
	}

	for i, block := range blocks {
		assert.Equal(t, i, block.Index)
		assert.Equal(t, block.Fence(), string(nested[block.Span.Start.Offset:block.Span.Start.Offset+block.FenceLen]))
	}
}

func TestApplyEmptyPlan(t *testing.T) {
	t.Parallel()

	sources := [][]byte{
		nested,
		md("no trailing newline\n'''go\nx\n'''"),
		md("'''go\r\nx\r\n'''\r\n\r\n"),
		[]byte(""),
	}

	for _, source := range sources {
		blocks, err := mdcode.Unfence(source)
		require.NoError(t, err)

		plan, err := mdcode.NewPlan(blocks, map[int]string{})
		require.NoError(t, err)
		assert.Empty(t, plan)

		result, err := mdcode.Apply(source, plan)
		require.NoError(t, err)
		assert.Equal(t, source, result)
	}
}

func TestReplaceWithOwnContent(t *testing.T) {
	t.Parallel()

	sources := [][]byte{
		nested,
		md(">'''\n> x\n>'''\n"),
		md("  '''\nx\n  '''\n"),
		md("> '''go\n>   indented\n>\n> x\n> '''\n"),
		md("- '''sh\n  ls\n\n  pwd\n  '''\n"),
		md("'''go\n\tx\n'''\n"),
	}

	for _, source := range sources {
		blocks, err := mdcode.Unfence(source)
		require.NoError(t, err)
		require.NotEmpty(t, blocks, "%q", source)

		for _, block := range blocks {
			result, err := mdcode.Replace(source, map[int]string{block.Index: block.Code})
			require.NoError(t, err)
			assert.Equal(t, string(source), string(result), "block %d", block.Index)
		}
	}
}

func TestReplaceKeepsLinePrefixes(t *testing.T) {
	t.Parallel()

	result, err := mdcode.Replace(md(">'''\n> x\n>'''\n"), map[int]string{0: "y\nz"})
	require.NoError(t, err)
	assert.Equal(t, string(md(">'''\n> y\n>z\n>'''\n")), string(result))

	result, err = mdcode.Replace(md("  '''\nx\n  '''\n"), map[int]string{0: "y\nz"})
	require.NoError(t, err)
	assert.Equal(t, string(md("  '''\ny\n  z\n  '''\n")), string(result))
}

func TestReplaceScenario(t *testing.T) {
	t.Parallel()

	source := md("# T\n'''js\nconst x=1;\n'''\nText\n'''ts\nconst y:number=2;\n'''\n")

	result, err := mdcode.Replace(source, map[int]string{
		0: "const x = 1;",
		1: "const y: number = 2;",
	})
	require.NoError(t, err)

	want := md("# T\n'''js\nconst x = 1;\n'''\nText\n'''ts\nconst y: number = 2;\n'''\n")
	assert.Equal(t, string(want), string(result))
}

func TestReplacePreservesFences(t *testing.T) {
	t.Parallel()

	source := md("~~~yaml\nkey:   value\n~~~\n\nsome prose\n\n''''js title=\"a.js\"\nvar a=1\n''''\n")

	result, err := mdcode.Replace(source, map[int]string{1: "var a = 1;\nvar b = 2;"})
	require.NoError(t, err)

	want := md("~~~yaml\nkey:   value\n~~~\n\nsome prose\n\n''''js title=\"a.js\"\nvar a = 1;\nvar b = 2;\n''''\n")
	assert.Equal(t, string(want), string(result))

	blocks, err := mdcode.Unfence(result)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, byte('~'), blocks[0].FenceChar)
	assert.Equal(t, "key:   value", blocks[0].Code)
	assert.Equal(t, 4, blocks[1].FenceLen)
	assert.Equal(t, `title="a.js"`, blocks[1].Meta)
	assert.Equal(t, "var a = 1;\nvar b = 2;", blocks[1].Code)
}

func TestReplaceTrailingNewline(t *testing.T) {
	t.Parallel()

	source := md("'''go\nx\n'''\n")

	tests := []struct {
		name string
		code string
		want string
	}{
		{name: "without newline", code: "y", want: "'''go\ny\n'''\n"},
		{name: "with newline", code: "y\n", want: "'''go\ny\n'''\n"},
		{name: "empty", code: "", want: "'''go\n'''\n"},
		{name: "blank lines kept", code: "a\n\nb\n\n", want: "'''go\na\n\nb\n\n'''\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := mdcode.Replace(source, map[int]string{0: tt.code})
			require.NoError(t, err)
			assert.Equal(t, string(md(tt.want)), string(result))

			again, err := mdcode.Replace(result, map[int]string{0: tt.code})
			require.NoError(t, err)
			assert.Equal(t, string(result), string(again))
		})
	}
}

func TestReplaceNestedContainers(t *testing.T) {
	t.Parallel()

	result, err := mdcode.Replace(nested, map[int]string{
		1: "package main\n\nfunc main() {}",
		2: "a: 1\n\nb: 2",
	})
	require.NoError(t, err)

	want := md(`# Title

'''js {1}
let a = 1
'''

- item

  '''go
  package main

  func main() {}
  '''

> ~~~~yaml
> a: 1
>
> b: 2
> ~~~~
`)
	assert.Equal(t, string(want), string(result))

	blocks, err := mdcode.Unfence(result)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "package main\n\nfunc main() {}", blocks[1].Code)
	assert.Equal(t, "a: 1\n\nb: 2", blocks[2].Code)
}

func TestReplaceCRLF(t *testing.T) {
	t.Parallel()

	result, err := mdcode.Replace(md("'''go\r\nx\r\n'''\r\n"), map[int]string{0: "y"})
	require.NoError(t, err)
	assert.Equal(t, string(md("'''go\r\ny\r\n'''\r\n")), string(result))
}

func TestReplaceMultiByte(t *testing.T) {
	t.Parallel()

	heading := "# Ünïcödé ✓\n"
	source := md(heading + "'''py\nprint('é')\n'''\nfin ✓\n")

	blocks, err := mdcode.Unfence(source)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, len(heading), blocks[0].Span.Start.Offset)
	assert.Equal(t, 2, blocks[0].Span.Start.Line)

	result, err := mdcode.Replace(source, map[int]string{0: "print(\"ü\")"})
	require.NoError(t, err)
	assert.Equal(t, string(md(heading+"'''py\nprint(\"ü\")\n'''\nfin ✓\n")), string(result))
}

func TestLongerFenceContainsShorter(t *testing.T) {
	t.Parallel()

	source := md("''''md\n'''go\nx\n'''\n''''\n")

	blocks, err := mdcode.Unfence(source)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "markdown", blocks[0].Lang)
	assert.Equal(t, 4, blocks[0].FenceLen)
	assert.Equal(t, md("'''go\nx\n'''"), []byte(blocks[0].Code))
}

func TestCommentedCodeBlock(t *testing.T) {
	t.Parallel()

	source := md("<!--<script type=\"text/markdown\">\n'''js\nlet x\n'''\n</script>-->\n\n'''sh\nls\n'''\n")

	blocks, err := mdcode.Unfence(source)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "javascript", blocks[0].Lang)
	assert.Equal(t, "let x", blocks[0].Code)
	assert.Equal(t, "sh", blocks[1].Lang)

	result, err := mdcode.Replace(source, map[int]string{0: "let x = 1;"})
	require.NoError(t, err)
	assert.Equal(t, string(md("<!--<script type=\"text/markdown\">\n'''js\nlet x = 1;\n'''\n</script>-->\n\n'''sh\nls\n'''\n")), string(result))
}

func TestEmptyFences(t *testing.T) {
	t.Parallel()

	source := md("'''\n'''\n\n~~~\n~~~\n\n'''go\nx\n'''\n\n- item\n\n  '''\n  '''\n")

	blocks, err := mdcode.Unfence(source)
	require.NoError(t, err)
	require.Len(t, blocks, 4)

	for i, want := range []int{0, 8, 16, 36} {
		assert.Equal(t, want, blocks[i].Span.Start.Offset, "block %d", i)
		assert.Empty(t, blocks[i].Code, "block %d", i)
		assert.Empty(t, blocks[i].Lang, "block %d", i)
	}

	assert.Equal(t, byte('~'), blocks[1].FenceChar)
	assert.Equal(t, "~~~", blocks[1].Fence())
	assert.Equal(t, 3, blocks[3].Span.Start.Column)

	result, err := mdcode.Replace(source, map[int]string{0: "a", 1: "b", 3: "c"})
	require.NoError(t, err)
	assert.Equal(t, string(md("'''\na\n'''\n\n~~~\nb\n~~~\n\n'''go\nx\n'''\n\n- item\n\n  '''\n  c\n  '''\n")), string(result))

	_, err = mdcode.Parse(md("text\n\n'''\n"))
	require.ErrorIs(t, err, mdcode.ErrUnterminatedFence)
}

func TestApplyRejectsZeroGeometry(t *testing.T) {
	t.Parallel()

	source := md("'''go\nx\n'''\n")

	plan := mdcode.Plan{{Index: 0, Span: mdcode.Span{End: mdcode.Position{Offset: 10}}, Code: "x"}}

	result, err := mdcode.Apply(source, plan)
	require.ErrorIs(t, err, mdcode.ErrSpanOutOfBounds)
	assert.Nil(t, result)
}

func TestParseUnterminated(t *testing.T) {
	t.Parallel()

	_, err := mdcode.Parse(md("text\n\n'''go\nfmt.Println()\n"))
	require.ErrorIs(t, err, mdcode.ErrUnterminatedFence)
	assert.Contains(t, err.Error(), "line 3")
}

func TestNewPlanUnknownIndex(t *testing.T) {
	t.Parallel()

	blocks, err := mdcode.Unfence(nested)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	plan, err := mdcode.NewPlan(blocks, map[int]string{0: "ok", 99: "x"})
	require.ErrorIs(t, err, mdcode.ErrUnknownBlockIndex)
	assert.Nil(t, plan)

	var unknown *mdcode.UnknownIndexError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, 99, unknown.Index)
	assert.Equal(t, 3, unknown.Count)

	_, err = mdcode.NewPlan(blocks, map[int]string{-1: "x"})
	require.ErrorIs(t, err, mdcode.ErrUnknownBlockIndex)
}

func TestNewPlanOrder(t *testing.T) {
	t.Parallel()

	blocks, err := mdcode.Unfence(nested)
	require.NoError(t, err)

	plan, err := mdcode.NewPlan(blocks, map[int]string{0: "a", 2: "c", 1: "b"})
	require.NoError(t, err)
	require.Len(t, plan, 3)

	for i, want := range []int{2, 1, 0} {
		assert.Equal(t, want, plan[i].Index)
	}

	for i := 1; i < len(plan); i++ {
		assert.Greater(t, plan[i-1].Span.Start.Offset, plan[i].Span.Start.Offset)
	}
}

func TestApplyRejectsMismatchedPlan(t *testing.T) {
	t.Parallel()

	blocks, err := mdcode.Unfence(nested)
	require.NoError(t, err)

	plan, err := mdcode.NewPlan(blocks, map[int]string{2: "b: 2"})
	require.NoError(t, err)

	result, err := mdcode.Apply(nested[:50], plan)
	require.ErrorIs(t, err, mdcode.ErrSpanOutOfBounds)
	assert.Nil(t, result)

	plan, err = mdcode.NewPlan(blocks, map[int]string{0: "a", 1: "b"})
	require.NoError(t, err)

	plan[0], plan[1] = plan[1], plan[0]

	_, err = mdcode.Apply(nested, plan)
	require.ErrorIs(t, err, mdcode.ErrPlanOrder)
}

func TestWalk(t *testing.T) {
	t.Parallel()

	modified, result, err := mdcode.Walk(nested, func(block *mdcode.Block) error {
		if block.Lang == "go" {
			block.Code = strings.ToUpper(block.Code)
		}

		return nil
	})
	require.NoError(t, err)
	assert.True(t, modified)
	assert.Contains(t, string(result), "  PACKAGE MAIN\n")

	modified, result, err = mdcode.Walk(nested, func(*mdcode.Block) error { return nil })
	require.NoError(t, err)
	assert.False(t, modified)
	assert.Nil(t, result)

	errStop := errors.New("stop")
	_, _, err = mdcode.Walk(nested, func(*mdcode.Block) error { return errStop })
	require.ErrorIs(t, err, errStop)
}

func TestConcurrentExtract(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			blocks, err := mdcode.Unfence(nested)
			assert.NoError(t, err)
			assert.Len(t, blocks, 3)
		}()
	}

	wg.Wait()
}

func TestBlockLines(t *testing.T) {
	t.Parallel()

	blocks, err := mdcode.Unfence(md("x\n\n'''go\na\nb\n'''\n\n'''sh\nls\n'''"))
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	first, last := blocks[0].Lines()
	assert.Equal(t, 3, first)
	assert.Equal(t, 6, last)

	first, last = blocks[1].Lines()
	assert.Equal(t, 8, first)
	assert.Equal(t, 10, last)
}
