package stability

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/sketchly/billing-service/internal/domain"
	"github.com/sketchly/billing-service/pkg/logger"
)

const (
	generateEndpoint = "https://api.stability.ai/v2beta/stable-image/generate/core"
	outputFormat     = "webp"
)

// ImageGenerator turns a text prompt into an image.
type ImageGenerator interface {
	// GenerateImage returns the generated image as a data URL.
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// client calls the Stability AI REST API. There is no official Go SDK;
// the endpoint is a single multipart POST.
type client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a Stability AI image generator.
func NewClient(apiKey string, log *logger.Logger) ImageGenerator {
	return &client{
		apiKey:     apiKey,
		endpoint:   generateEndpoint,
		httpClient: http.DefaultClient,
		log:        log,
	}
}

// NewClientWithEndpoint is used by tests to point at a stub server.
func NewClientWithEndpoint(apiKey, endpoint string, httpClient *http.Client, log *logger.Logger) ImageGenerator {
	return &client{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: httpClient,
		log:        log,
	}
}

// GenerateImage posts the prompt and wraps the returned bytes as a data URL.
func (c *client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("prompt", prompt); err != nil {
		return "", fmt.Errorf("stability: failed to build request form: %w", err)
	}
	if err := form.WriteField("output_format", outputFormat); err != nil {
		return "", fmt.Errorf("stability: failed to build request form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("stability: failed to build request form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("stability: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "image/*")
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Errorw("Stability AI request failed", "error", err)
		return "", domain.NewExternalServiceError("stability", "failed to generate image", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Errorw("Stability AI returned an error", "status", resp.StatusCode, "body", string(detail))
		return "", domain.NewExternalServiceError("stability",
			fmt.Sprintf("image generation failed with status %d", resp.StatusCode), resp.StatusCode, nil)
	}

	imageBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Errorw("Failed to read Stability AI response", "error", err)
		return "", domain.NewExternalServiceError("stability", "failed to read generated image", 0, err)
	}

	dataURL := fmt.Sprintf("data:image/%s;base64,%s", outputFormat, base64.StdEncoding.EncodeToString(imageBytes))
	c.log.Infow("Image generated via Stability AI", "bytes", len(imageBytes))
	return dataURL, nil
}
