package persona

import (
	"fmt"
	"strings"
)

// BuildPrompt composes the system prompt for one grounded answer. A nil cfg
// produces a neutral customer-service prompt with no company branding.
func BuildPrompt(cfg *Config, userInput, knowledgeContext string, maxWords int) string {
	if cfg == nil {
		return fallbackPrompt(userInput, knowledgeContext)
	}
	if maxWords <= 0 {
		maxWords = cfg.MaxWords
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are the official AI assistant for %s.\n", cfg.CompanyName)
	if cfg.CompanyURL != "" {
		fmt.Fprintf(&b, "Company Website: %s\n", cfg.CompanyURL)
	}
	if cfg.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", cfg.Industry)
	}
	if cfg.CompanyDescription != "" {
		fmt.Fprintf(&b, "About %s: %s\n", cfg.CompanyName, cfg.CompanyDescription)
	}

	fmt.Fprintf(&b, "\nYour role is to help customers with questions about %s and provide accurate information based on the knowledge base provided.\n", cfg.CompanyName)
	fmt.Fprintf(&b, "\nPERSONALITY & COMMUNICATION STYLE:\n%s\n", Instructions(cfg.Tone, cfg.Industry))
	fmt.Fprintf(&b, "\nRESPONSE LENGTH: Keep your response to EXACTLY %d words. Be concise but informative. Do not exceed this word count.\n", maxWords)
	fmt.Fprintf(&b, "\nAnswer the user's question: %s\n", userInput)
	fmt.Fprintf(&b, "\nKnowledge Base Information (use only if relevant; do not invent facts):\n%s\n", knowledgeContext)

	website := cfg.CompanyURL
	if website == "" {
		website = "our official website"
	}
	fmt.Fprintf(&b, `
Rules:
- Always represent %s professionally
- Use ONLY the business information provided above to answer questions
- If the answer is not in the knowledge base, politely say you don't have that specific information and offer to help with something else
- Follow the personality and communication style guidelines above
- Focus on helping customers with %s's services and information
- Be specific and accurate based on the available business information only
- If asked about %s's website, direct them to %s
`, cfg.CompanyName, cfg.CompanyName, cfg.CompanyName, website)

	return b.String()
}

func fallbackPrompt(userInput, knowledgeContext string) string {
	return fmt.Sprintf(`You are a helpful customer service assistant.
Answer the user's question briefly (max 6 lines): %s

Business Information (use only if relevant; do not invent facts):
%s

Rules:
- Use ONLY the business information provided above to answer questions.
- If the answer is not in the business information above, say you don't have that specific information and ask a clarifying question.
- Keep the tone helpful and professional.
- Be specific and accurate based on the available business information only.
`, userInput, knowledgeContext)
}

// RefinePrompt asks the generator to restate a draft at an exact word count.
// Issued at most once per answer, when the first draft lands well short of
// the budget.
func RefinePrompt(draft string, maxWords int) string {
	return fmt.Sprintf(`Rewrite the following answer to be EXACTLY %d words while keeping all factual content and the same tone. Do not add new facts.

Answer: %s`, maxWords, draft)
}
