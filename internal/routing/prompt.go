package routing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PromptInput carries everything the classification prompt embeds.
type PromptInput struct {
	TenantName string
	Channel    string
	Message    string
	Context    map[string]any
	Rules      []RouteRule
}

// BuildClassificationPrompt renders the single-turn prompt sent to the
// completion service. One call per route; the model is instructed to answer
// with exactly one JSON object so the tolerant extractor can find it even
// when the reply carries surrounding prose.
func BuildClassificationPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("You are the message triage engine for the internet service provider ")
	b.WriteString(tenantLabel(in.TenantName))
	b.WriteString(".\nClassify the customer message below into exactly one sector.\n\n")

	b.WriteString("Sectors:\n")
	for _, s := range Sectors() {
		fmt.Fprintf(&b, "- %s: %s\n", s, s.Description())
	}

	if len(in.Rules) > 0 {
		b.WriteString("\nTenant routing preferences (advisory, highest priority first):\n")
		for _, r := range in.Rules {
			fmt.Fprintf(&b, "- [%d] when handling %s: %s (prefer %s)\n", r.Priority, r.FromSector, r.Predicate, r.ToSector)
		}
	}

	if len(in.Context) > 0 {
		if raw, err := json.Marshal(in.Context); err == nil {
			b.WriteString("\nConversation context: ")
			b.Write(raw)
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nChannel: %s\nCustomer message: %q\n\n", in.Channel, in.Message)

	b.WriteString("Reply with a single JSON object and nothing else:\n")
	b.WriteString(`{"sector": "INTAKE|TECHNICAL|SALES|BILLING", "intention": "<short intent label>", "confidence": <0..1>, "parameters": {<extracted fields>}}`)
	b.WriteString("\nIf the message is ambiguous, use INTAKE with a low confidence.")

	return b.String()
}

func tenantLabel(name string) string {
	if name == "" {
		return "this provider"
	}
	return name
}
