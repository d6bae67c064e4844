// Package llm provides AI-backed transaction extraction for statements that
// neither table nor text-pattern extraction could read. It supports Gemini,
// Anthropic and OpenAI, with rate limiting and response caching.
package llm
