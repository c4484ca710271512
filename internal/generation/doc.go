// Package generation provides interfaces and implementations for interacting
// with external AI/LLM services for content segmentation. It abstracts the
// details of LLM API integration (Gemini), allowing the application to split
// raw study text into chapters without coupling to specific external services.
package generation
