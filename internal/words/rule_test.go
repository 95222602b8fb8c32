package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleAllows(t *testing.T) {
	tests := []struct {
		name string
		rule *Rule
		text string
		want bool
	}{
		{"nil rule passes everything", nil, "anything at all", true},
		{"empty rule passes", &Rule{}, "anything", true},
		{"look match", &Rule{Look: []string{"launch"}}, "We launch tomorrow", true},
		{"look no match", &Rule{Look: []string{"launch"}}, "We ship tomorrow", false},
		{"look is whole-word", &Rule{Look: []string{"launch"}}, "The launchpad is ready", false},
		{"look case-insensitive", &Rule{Look: []string{"LAUNCH"}}, "we launch now", true},
		{"block match rejects", &Rule{Block: []string{"spam"}}, "pure spam here", false},
		{"block case-insensitive", &Rule{Block: []string{"Spam"}}, "SPAM everywhere", false},
		{"block wins over look", &Rule{Look: []string{"launch"}, Block: []string{"tomorrow"}}, "We launch tomorrow", false},
		{"multiline text tokenizes", &Rule{Look: []string{"launch"}}, "big news\nwe launch\ntoday", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Allows(tt.text))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"we", "launch", "tomorrow"}, Tokenize("We  launch\ntomorrow"))
	assert.Empty(t, Tokenize("   \n\t "))
}
