package signature

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specbisect/internal/example"
)

var (
	idA = example.NewID("./a_spec.rb", 1, 1)
	idB = example.NewID("./a_spec.rb", 2, 1)
)

func TestEquivalent(t *testing.T) {
	base := New([]Failure{{ID: idA, Class: "RuntimeError", Message: "boom"}}, ModeFull)

	tests := []struct {
		name  string
		other []Failure
		mode  Mode
		want  bool
	}{
		{"same failure", []Failure{{ID: idA, Class: "RuntimeError", Message: "boom"}}, ModeFull, true},
		{"nothing failed", nil, ModeFull, false},
		{"different example", []Failure{{ID: idB, Class: "RuntimeError", Message: "boom"}}, ModeFull, false},
		{"extra failure", []Failure{
			{ID: idA, Class: "RuntimeError", Message: "boom"},
			{ID: idB, Class: "RuntimeError", Message: "boom"},
		}, ModeFull, false},
		{"different message", []Failure{{ID: idA, Class: "RuntimeError", Message: "bang"}}, ModeFull, false},
		{"different class", []Failure{{ID: idA, Class: "ArgumentError", Message: "boom"}}, ModeFull, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := New(tt.other, tt.mode)
			assert.Equal(t, tt.want, base.Equivalent(other))
			assert.Equal(t, tt.want, other.Equivalent(base))
		})
	}
}

func TestEquivalent_IDsMode(t *testing.T) {
	a := New([]Failure{{ID: idA, Class: "RuntimeError", Message: "boom"}}, ModeIDs)
	b := New([]Failure{{ID: idA, Class: "ArgumentError", Message: "other"}}, ModeIDs)
	assert.True(t, a.Equivalent(b))
}

func TestEquivalent_IgnoresObjectAddresses(t *testing.T) {
	a := New([]Failure{{ID: idA, Class: "E", Message: "expected #<User:0x00007f8b1c0a1b28> to be valid"}}, ModeFull)
	b := New([]Failure{{ID: idA, Class: "E", Message: "expected #<User:0x00007f8b1d9e3f10> to be valid  \n"}}, ModeFull)
	assert.True(t, a.Equivalent(b))
}

func TestNew_DuplicateIDsKeepFirst(t *testing.T) {
	s := New([]Failure{
		{ID: idA, Class: "E", Message: "first"},
		{ID: idA, Class: "E", Message: "second"},
	}, ModeFull)
	require.Equal(t, 1, s.Len())
	f, ok := s.Failure(idA)
	require.True(t, ok)
	assert.Equal(t, "first", f.Message)
}

func TestDiff(t *testing.T) {
	base := New([]Failure{{ID: idA, Class: "E", Message: "boom"}}, ModeFull)

	assert.Empty(t, base.Diff(base))

	diff := base.Diff(New([]Failure{
		{ID: idA, Class: "E", Message: "bang\nmore detail"},
		{ID: idB, Class: "F", Message: "new"},
	}, ModeFull))
	require.Len(t, diff, 2)
	assert.Contains(t, diff[0], "fails differently: E: bang")
	assert.NotContains(t, diff[0], "more detail")
	assert.True(t, strings.HasPrefix(diff[1], "./a_spec.rb[2:1] now fails"))

	gone := base.Diff(New(nil, ModeFull))
	assert.Equal(t, []string{"./a_spec.rb[1:1] no longer fails"}, gone)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeFull, m)

	m, err = ParseMode("IDS")
	require.NoError(t, err)
	assert.Equal(t, ModeIDs, m)

	_, err = ParseMode("fuzzy")
	assert.Error(t, err)
}

func TestSummarize_TruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := summarize(Failure{ID: idA, Class: "RuntimeError", Message: long + "\nbacktrace"})

	assert.True(t, utf8.ValidString(got), "summary must stay valid UTF-8: %q", got)
	assert.Equal(t, "RuntimeError: "+strings.Repeat("é", 117)+"...", got)

	short := strings.Repeat("é", 120)
	assert.Equal(t, short, summarize(Failure{Message: short}))
}
