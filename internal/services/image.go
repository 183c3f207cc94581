package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/shared"
)

type restPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type generateContentRequest struct {
	Contents         []restContent    `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      restContent `json:"content"`
		FinishReason string      `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type   string `json:"@type"`
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

func (b apiErrorBody) reason() string {
	for _, d := range b.Error.Details {
		if d.Reason != "" {
			return d.Reason
		}
	}
	return ""
}

// Thumbnail implements [Generator] through the REST generateContent endpoint.
func (s *GeminiService) Thumbnail(ctx context.Context, cred credentials.Credential, sel models.CompleteSelection, colors []string) (*Thumbnail, error) {
	if err := s.wait(ctx, "thumbnail"); err != nil {
		return nil, err
	}

	header, value, err := cred.AuthHeader()
	if err != nil {
		return nil, translateError("thumbnail", err)
	}

	ratio := sel.AspectRatio
	if ratio == "" {
		ratio = models.DefaultAspectRatio
	}

	prompt := ThumbnailPrompt(sel, colors)
	body := generateContentRequest{
		Contents: []restContent{{Role: "user", Parts: []restPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: string(ratio), ImageSize: s.imageSize},
		},
	}

	var out generateContentResponse
	var apiErr apiErrorBody
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader(header, value).
		SetPathParam("model", s.imageModel).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/models/{model}:generateContent")
	if err != nil {
		return nil, translateError("thumbnail", err)
	}

	if resp.IsError() {
		httpErr := &HTTPError{
			StatusCode: resp.StatusCode(),
			Status:     apiErr.Error.Status,
			Message:    apiErr.Error.Message,
			Reason:     apiErr.reason(),
		}
		if httpErr.Message == "" {
			httpErr.Message = resp.String()
		}
		s.logger.Error("image generation failed", "status", resp.StatusCode(), "message", httpErr.Message)
		return nil, translateError("thumbnail", httpErr)
	}

	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return nil, translateError("thumbnail",
			fmt.Errorf("%w: prompt blocked (%s)", shared.ErrMalformedResponse, out.PromptFeedback.BlockReason))
	}

	for _, cand := range out.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			s.logger.Info("thumbnail generated", "aspect_ratio", ratio, "mime", mime, "bytes", len(part.InlineData.Data))
			return &Thumbnail{
				DataURI:  fmt.Sprintf("data:%s;base64,%s", mime, part.InlineData.Data),
				MIMEType: mime,
				Prompt:   prompt,
			}, nil
		}
	}

	return nil, translateError("thumbnail", fmt.Errorf("%w: no image data in response", shared.ErrMalformedResponse))
}
