package narrative

// Window sizes, in bytes, scanned backwards from a matched number
const (
	ProviderGuardWindow = 120
	BrandLookupWindow   = 200
)

// Options configures a Corrector
type Options struct {
	// Providers is the vocabulary of the provider guard
	Providers []string
	// RenameMentionRate rewrites "mention rate(s)" to "visibility score(s)".
	// Off by default: existing expectations keep the phrase as written.
	RenameMentionRate bool
}

// DefaultProviders returns the provider and model names the guard recognises
func DefaultProviders() []string {
	return []string{
		"ChatGPT",
		"OpenAI",
		"GPT-4o",
		"GPT-4",
		"GPT",
		"Claude",
		"Anthropic",
		"Gemini",
		"Google AI Overviews",
		"AI Overviews",
		"AI Overview",
		"Perplexity",
		"Grok",
		"Llama",
		"Meta AI",
		"Copilot",
	}
}

// DefaultOptions returns the guard vocabulary with the rename pass disabled
func DefaultOptions() Options {
	return Options{Providers: DefaultProviders()}
}
