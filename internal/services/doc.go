// Package services defines the [Generator] interface for the generative API and implements it for Gemini.
//
// # Gemini Implementation
//
// [GeminiService] uses two transports:
//   - text (palette, titles, connection probe) goes through the genai SDK with JSON response schemas
//   - image generation calls the REST generateContent endpoint with resty, because the request needs
//     generationConfig.imageConfig (aspect ratio and image size)
//
// Every call takes a [credentials.Credential]; nothing is read from globals or the environment.
// Requests share a [rate.Limiter].
//
// # Error Handling
//
// Transport and API failures pass through a single translation function and come back wrapping one of:
//   - [shared.ErrCredentialInvalid] : the key was rejected, lacks access, or the entity was not found
//   - [shared.ErrQuotaExceeded] : rate or billing limits
//   - [shared.ErrServiceUnavailable] : 5xx answers
//   - [shared.ErrMalformedResponse] : no image in the answer
//   - [shared.ErrAPIRequest] : anything else
//
// Palette and title answers that arrive but cannot be decoded fall back to fixed defaults instead of failing.
package services
