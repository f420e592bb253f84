package replicate

import (
	"context"
	"fmt"

	replicatego "github.com/replicate/replicate-go"

	"github.com/sketchly/billing-service/internal/domain"
	"github.com/sketchly/billing-service/pkg/logger"
)

// Model used for background removal. Pinned to an exact version so the
// output contract cannot drift under us.
const removeBackgroundModel = "cjwbw/rembg:fb8af171cfa1616ddcf1242c093f9c46bcada5ad4cf6f2fbe8b81b330ec5c003"

// BackgroundRemover strips the background from an image.
type BackgroundRemover interface {
	// RemoveBackground takes an image reference (URL or data URL) and
	// returns the processed image reference.
	RemoveBackground(ctx context.Context, image string) (string, error)
}

type client struct {
	api *replicatego.Client
	log *logger.Logger
}

// NewClient creates a Replicate-backed background remover.
func NewClient(apiToken string, log *logger.Logger) (BackgroundRemover, error) {
	api, err := replicatego.NewClient(replicatego.WithToken(apiToken))
	if err != nil {
		log.Errorw("Failed to initialize Replicate client", "error", err)
		return nil, fmt.Errorf("replicate: failed to initialize client: %w", err)
	}
	return &client{
		api: api,
		log: log,
	}, nil
}

// RemoveBackground runs the rembg model and returns its output reference.
func (c *client) RemoveBackground(ctx context.Context, image string) (string, error) {
	input := replicatego.PredictionInput{
		"image": image,
	}

	output, err := c.api.Run(ctx, removeBackgroundModel, input, nil)
	if err != nil {
		c.log.Errorw("Replicate background removal failed", "error", err)
		return "", domain.NewExternalServiceError("replicate", "failed to remove background", 0, err)
	}

	result, ok := output.(string)
	if !ok || result == "" {
		c.log.Errorw("Replicate returned an unexpected output shape", "output", fmt.Sprintf("%T", output))
		return "", domain.NewExternalServiceError("replicate", "no image returned", 0, nil)
	}

	c.log.Infow("Background removed via Replicate")
	return result, nil
}
