// Package inference provides an HTTP implementation of the
// domain.InferenceClient interface.
//
// The client speaks the non-streaming form of the Ollama chat API: it posts
// the model name and the ordered conversation to /api/chat and reads back a
// single assistant message. Requests carry the caller's context, so the
// caller's deadline bounds the call. Non-2xx statuses are returned as errors
// with the full URL and status text.
package inference
