// Package translation dispatches text translations to hosted LLM providers
// (Groq, DeepSeek, OpenAI, Claude, Perplexity and optionally Gemini). It
// normalizes model replies, falls back to other configured providers when the
// preferred one fails and translates item batches sequentially.
package translation
