package example

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(file string, scopes ...int) []ID {
	out := make([]ID, 0, len(scopes))
	for _, n := range scopes {
		out = append(out, NewID(file, n, 1))
	}
	return out
}

func TestParseID(t *testing.T) {
	id, err := ParseID("./spec/a_spec.rb[2:1:3]")
	require.NoError(t, err)
	assert.Equal(t, "./spec/a_spec.rb", id.File)
	assert.Equal(t, []int{2, 1, 3}, id.Scope)
	assert.Equal(t, "./spec/a_spec.rb[2:1:3]", id.String())
}

func TestParseID_Invalid(t *testing.T) {
	tests := []string{
		"",
		"./spec/a_spec.rb",
		"./spec/a_spec.rb[]",
		"[1:1]",
		"./spec/a_spec.rb[1:x]",
		"./spec/a_spec.rb[0:1]",
		"./spec/a_spec.rb[1:1,2:1]",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			_, err := ParseID(s)
			assert.Error(t, err)
		})
	}
}

func TestParseLocation_Compact(t *testing.T) {
	got, err := ParseLocation("./a_spec.rb[1:1,22:1]")
	require.NoError(t, err)
	want := []ID{NewID("./a_spec.rb", 1, 1), NewID("./a_spec.rb", 22, 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseLocation mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSelection_DropsDuplicates(t *testing.T) {
	a := NewID("./a.rb", 1)
	b := NewID("./a.rb", 2)
	sel := NewSelection(a, b, a)
	assert.Equal(t, 2, sel.Len())
	assert.Equal(t, []string{"./a.rb[1]", "./a.rb[2]"}, sel.Strings())
}

func TestSelection_Compact(t *testing.T) {
	sel := NewSelection(
		NewID("./b.rb", 3, 1),
		NewID("./a.rb", 2, 1),
		NewID("./b.rb", 1, 1),
		NewID("./a.rb", 1, 1),
	)
	assert.Equal(t, []string{"./b.rb[3:1,1:1]", "./a.rb[2:1,1:1]"}, sel.Compact())
}

func TestSelection_WithoutAndUnion(t *testing.T) {
	all := NewSelection(ids("./a.rb", 1, 2, 3, 4)...)
	chunk := NewSelection(ids("./a.rb", 2, 3)...)

	rest := all.Without(chunk)
	assert.Equal(t, []string{"./a.rb[1:1]", "./a.rb[4:1]"}, rest.Strings())
	assert.Equal(t, 4, all.Len(), "Without must not mutate the receiver")

	back := rest.Union(chunk)
	assert.Equal(t, 4, back.Len())
	assert.True(t, back.Contains(NewID("./a.rb", 3, 1)))
	assert.False(t, rest.Contains(NewID("./a.rb", 3, 1)))
}

func TestSelection_OrderedBy(t *testing.T) {
	reference := ids("./a.rb", 1, 2, 3, 4, 5)
	sel := NewSelection(NewID("./a.rb", 5, 1), NewID("./z.rb", 9, 1), NewID("./a.rb", 2, 1))

	got := sel.OrderedBy(reference).Strings()
	assert.Equal(t, []string{"./a.rb[2:1]", "./a.rb[5:1]", "./z.rb[9:1]"}, got)
}

func TestChunks(t *testing.T) {
	all := ids("./a.rb", 1, 2, 3, 4, 5)

	chunks := Chunks(all, 2)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[2], 1)

	assert.Len(t, Chunks(all, 0), 5)
	assert.Len(t, Chunks(all, 10), 1)
	assert.Empty(t, Chunks(nil, 3))
}
