// Package genai wraps the OpenRouter-compatible multimodal completion
// API used for text generation, image generation, and image editing.
// The client deliberately carries no retry policy; the pipeline treats
// each failed call as one lost work item.
package genai
