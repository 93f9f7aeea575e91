package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"betascope/internal/domain"
	"betascope/internal/observability"
)

// DefaultNarrativeBatchSize bounds one classification call.
const DefaultNarrativeBatchSize = 12

// NarrativeAssignment maps one token to a narrative category. Novel is set
// when the classifier minted a category not in the supplied list.
type NarrativeAssignment struct {
	Address  string
	Category string
	Novel    bool
}

// NarrativeClassifier buckets tokens into narrative categories. Existing
// categories are offered first so runs converge instead of re-inventing
// synonyms for the same season.
type NarrativeClassifier struct {
	client    *Client
	batchSize int
}

// NewNarrativeClassifier creates a classifier around the given client.
func NewNarrativeClassifier(client *Client) *NarrativeClassifier {
	return &NarrativeClassifier{client: client, batchSize: DefaultNarrativeBatchSize}
}

type narrativeElement struct {
	Index    int    `json:"index"`
	Category string `json:"category"`
	Novel    bool   `json:"novel"`
}

// Classify assigns each token to one of the known categories or a novel
// one. Tokens the classifier cannot place are omitted from the result.
func (n *NarrativeClassifier) Classify(ctx context.Context, known []string, tokens []domain.Token) ([]NarrativeAssignment, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var all []NarrativeAssignment
	for start := 0; start < len(tokens); start += n.batchSize {
		end := start + n.batchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		elements, err := n.client.Ask(ctx, buildNarrativePrompt(known, batch))
		observability.RecordAICall("narrative", err)
		if err != nil {
			return nil, err
		}

		for _, raw := range elements {
			var el narrativeElement
			if err := json.Unmarshal(raw, &el); err != nil {
				continue
			}
			if el.Index < 0 || el.Index >= len(batch) {
				continue
			}
			category := strings.TrimSpace(el.Category)
			if category == "" {
				continue
			}
			all = append(all, NarrativeAssignment{
				Address:  batch[el.Index].Address,
				Category: category,
				Novel:    el.Novel,
			})
		}
	}
	return all, nil
}

// ClassifyVisual assigns categories from logo artwork alone. Used for
// tokens whose text gave the keyword and AI passes nothing to work with;
// only tokens carrying a logo are sent.
func (n *NarrativeClassifier) ClassifyVisual(ctx context.Context, known []string, tokens []domain.Token) ([]NarrativeAssignment, error) {
	var eligible []domain.Token
	for _, tok := range tokens {
		if tok.LogoURL != "" {
			eligible = append(eligible, tok)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	var all []NarrativeAssignment
	for start := 0; start < len(eligible); start += n.batchSize {
		end := start + n.batchSize
		if end > len(eligible) {
			end = len(eligible)
		}
		batch := eligible[start:end]

		elements, err := n.client.Ask(ctx, buildVisualNarrativePrompt(known, batch))
		observability.RecordAICall("narrative", err)
		if err != nil {
			return nil, err
		}

		for _, raw := range elements {
			var el narrativeElement
			if err := json.Unmarshal(raw, &el); err != nil {
				continue
			}
			if el.Index < 0 || el.Index >= len(batch) {
				continue
			}
			category := strings.TrimSpace(el.Category)
			if category == "" {
				continue
			}
			all = append(all, NarrativeAssignment{
				Address:  batch[el.Index].Address,
				Category: category,
				Novel:    el.Novel,
			})
		}
	}
	return all, nil
}

func buildVisualNarrativePrompt(known []string, batch []domain.Token) string {
	var b strings.Builder
	b.WriteString("Assign each token below to ONE narrative category based on its logo artwork.\n")
	if len(known) > 0 {
		fmt.Fprintf(&b, "Prefer these existing categories when they fit: %s.\n", strings.Join(known, ", "))
	}
	b.WriteString("If none fit, invent a short new category name and set \"novel\" to true. ")
	b.WriteString("Respond with ONLY a JSON array of {\"index\", \"category\", \"novel\"}. Omit tokens with no clear theme.\n\n")
	for i, tok := range batch {
		fmt.Fprintf(&b, "%d. $%s logo: %s\n", i, tok.Symbol, tok.LogoURL)
	}
	return b.String()
}

func buildNarrativePrompt(known []string, batch []domain.Token) string {
	var b strings.Builder
	b.WriteString("Assign each token below to ONE narrative category.\n")
	if len(known) > 0 {
		fmt.Fprintf(&b, "Prefer these existing categories when they fit: %s.\n", strings.Join(known, ", "))
	}
	b.WriteString("If none fit, invent a short new category name and set \"novel\" to true. ")
	b.WriteString("Respond with ONLY a JSON array of {\"index\", \"category\", \"novel\"}. Omit tokens with no clear narrative.\n\n")
	for i, tok := range batch {
		fmt.Fprintf(&b, "%d. $%s (%s)", i, tok.Symbol, tok.Name)
		if tok.Description != "" {
			fmt.Fprintf(&b, " - %s", tok.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}
