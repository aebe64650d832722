// Package prompt builds the strict instruction template the answer generator
// sends to the language model. All fields are named and validated before
// rendering; an empty field is a bug in the caller, not something to silently
// substitute away.
package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"finedge/internal/domain"
)

// NoContextResponse is returned verbatim, without invoking the model, when
// retrieval finds nothing relevant for the role.
const NoContextResponse = "I couldn't find any relevant information for that in your role's documents."

// SystemErrorResponse is the generic apology shown for retrieval or
// generation failures. It is deliberately distinct from the role-denial
// phrasings so users can tell a system error from a refusal.
const SystemErrorResponse = "Sorry, something went wrong while answering that. Please try again."

// Greeting is the fixed friendly response for greeting-only input.
func Greeting(role string) string {
	return fmt.Sprintf("Hello! I'm FinBot, your %s assistant. How can I help you today?", role)
}

var greetingRe = regexp.MustCompile(`^(?i)(hi|hii+|hello|hey|heya|yo|howdy|greetings|good\s+(morning|afternoon|evening)|hi\s+there|hello\s+there)[\s!.,]*$`)

// IsGreeting reports whether the input is a greeting and nothing else.
// Greeting-only input gets the fixed greeting without consulting the model,
// since retrieval has no relevant context to offer for it.
func IsGreeting(query string) bool {
	return greetingRe.MatchString(strings.TrimSpace(query))
}

// Denials returns the role-bounded refusal phrasings the model is instructed
// to rotate between. Each names the role and none explains the refusal.
func Denials(role string) []string {
	return []string{
		fmt.Sprintf("I'm sorry, that information isn't available to the %s role.", role),
		fmt.Sprintf("That falls outside what I can share with the %s role.", role),
		fmt.Sprintf("I can only help with topics covered by the %s role's documents.", role),
		fmt.Sprintf("Nothing in the %s role's documents covers that.", role),
	}
}

// Data carries the named fields composed into a generation prompt.
type Data struct {
	Role    string
	Query   string
	Context string
	History []domain.Turn
}

// Validate rejects prompts with missing fields before they reach the model.
func (d Data) Validate() error {
	if strings.TrimSpace(d.Role) == "" {
		return errors.New("prompt: empty role")
	}
	if strings.TrimSpace(d.Query) == "" {
		return errors.New("prompt: empty query")
	}
	if strings.TrimSpace(d.Context) == "" {
		return errors.New("prompt: empty context")
	}
	return nil
}

// ContextBlock joins retrieved chunk contents in order, double-newline
// separated, into the context passed to the model.
func ContextBlock(chunks []domain.ScoredChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}

// System renders the strict instruction template for a role.
func System(role string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are FinBot, the internal company assistant serving the %s role.\n", role)
	b.WriteString("Follow these rules without exception:\n")
	fmt.Fprintf(&b, "1. If the user's message is only a greeting, reply with exactly %q and nothing else.\n", Greeting(role))
	b.WriteString("2. Answer only from the supplied context. Never use general or outside knowledge, and never guess.\n")
	b.WriteString("3. If the answer is not explicitly present in the context, or the question is outside the scope of the ")
	fmt.Fprintf(&b, "%s role, reply with exactly one of the following refusals, varying your choice, and nothing else:\n", role)
	for _, d := range Denials(role) {
		fmt.Fprintf(&b, "   - %s\n", d)
	}
	b.WriteString("   Never explain why access was refused.\n")
	b.WriteString("4. Otherwise answer directly and concisely in plain sentences: no preamble, no restating the question, no commentary.\n")
	return b.String()
}

// User renders the user-side prompt from validated data.
func (d Data) User() string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(d.Context)
	b.WriteString("\n")
	if len(d.History) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, t := range d.History {
			fmt.Fprintf(&b, "User: %s\nFinBot: %s\n", t.Query, t.Answer)
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %s", d.Query)
	return b.String()
}
