package policyai

import (
	"context"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

// Narrator asks the provider for a sectioned markdown comparison.
type Narrator struct {
	invoker
}

func NewNarrator(generator ports.TextGenerator, opts Options) *Narrator {
	return &Narrator{invoker: newInvoker(generator, opts)}
}

func (n *Narrator) Available() bool {
	return n.available()
}

// Compare returns the raw narrative. A response starting with "ERROR:" is a
// valid result: the model refused the pair.
func (n *Narrator) Compare(ctx context.Context, userID, text1, text2 string) (string, error) {
	gen, err := n.generate(ctx, domain.EndpointComparison, userID, BuildComparisonPrompt(text1, text2))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(gen.Text), nil
}
