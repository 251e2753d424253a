package drain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTokens_LinkTemplateIsMultiToken(t *testing.T) {
	tokens, useMetta := SplitTokens(`LINK_TEMPLATE Similarity 2 $X "dog"`)
	assert.False(t, useMetta)
	assert.Equal(t, []string{"LINK_TEMPLATE", "Similarity", "2", "$X", `"dog"`}, tokens)
}

func TestSplitTokens_LeadingParenIsMultiToken(t *testing.T) {
	tokens, useMetta := SplitTokens(`(Similarity $X "a dog")`)
	assert.False(t, useMetta)
	assert.Equal(t, []string{`(Similarity`, `$X`, `"a dog")`}, tokens)
}

func TestSplitTokens_PlainTextIsOneOpaqueToken(t *testing.T) {
	tokens, useMetta := SplitTokens("just some text")
	assert.True(t, useMetta)
	assert.Equal(t, []string{"just some text"}, tokens)
}

func TestSplitIgnoreQuoted_QuotedSpanStaysAtomic(t *testing.T) {
	got := splitIgnoreQuoted(`a "b c" d`)
	assert.Equal(t, []string{"a", `"b c"`, "d"}, got)
}

func TestNarrow_EmptySelectionReturnsEverything(t *testing.T) {
	bindings := map[string]string{"X": "1", "Y": "2"}
	assert.Equal(t, bindings, narrow(bindings, nil))
}

func TestNarrow_FiltersToRequestedVariables(t *testing.T) {
	bindings := map[string]string{"X": "1", "Y": "2"}
	got := narrow(bindings, map[string]struct{}{"X": {}})
	assert.Equal(t, map[string]string{"X": "1"}, got)
}
