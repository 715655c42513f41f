package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/nfnt/resize"

	"recipes_backend/services"
)

const (
	// maxImageBytes caps how much of a remote image is read.
	maxImageBytes = 20 << 20
	// maxSourcePixels caps the decoded size of a remote image.
	maxSourcePixels = 40_000_000
	// maxThumbnailSide caps both sides of a resized image.
	maxThumbnailSide = 2000
)

var (
	errUnsupportedFormat = errors.New("unsupported image format")
	errImageTooLarge     = errors.New("image too large")
)

// ImageHandler serves resized copies of recipe images.
type ImageHandler struct {
	recipes       *services.RecipeService
	client        *http.Client
	defaultHeight uint
	logger        *slog.Logger
}

// NewImageHandler creates a new ImageHandler. A nil client uses http.DefaultClient.
func NewImageHandler(recipes *services.RecipeService, client *http.Client, defaultHeight uint, logger *slog.Logger) *ImageHandler {
	if client == nil {
		client = http.DefaultClient
	}
	return &ImageHandler{recipes: recipes, client: client, defaultHeight: defaultHeight, logger: logger}
}

// FetchRecipeImage fetches the recipe's image, resizes it to the requested
// height keeping the aspect ratio, and returns it in its original format.
// Only JPEG and PNG are served. Neither side of the result exceeds
// maxThumbnailSide; a wide image is scaled to that width instead.
// GET /recipes/{recipeId}/image?height=N
func (h *ImageHandler) FetchRecipeImage(w http.ResponseWriter, r *http.Request) {
	height := h.defaultHeight
	if raw := r.URL.Query().Get("height"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n == 0 || n > maxThumbnailSide {
			writeError(w, http.StatusBadRequest, "Invalid height")
			return
		}
		height = uint(n)
	}
	height = min(height, maxThumbnailSide)

	recipe, err := h.recipes.Get(r.Context(), mux.Vars(r)["recipeId"])
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if recipe.Image == "" {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}

	img, format, err := h.fetch(r, recipe.Image)
	switch {
	case errors.Is(err, errUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported image format")
		return
	case errors.Is(err, errImageTooLarge):
		writeError(w, http.StatusUnprocessableEntity, "Image too large")
		return
	case err != nil:
		h.logger.Error("fetch image", "recipeID", recipe.ID, "url", recipe.Image, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch image")
		return
	}

	bounds := img.Bounds()
	aspectRatio := float64(bounds.Dx()) / float64(bounds.Dy())
	width := uint(float64(height) * aspectRatio)
	if width > maxThumbnailSide {
		// A zero height lets resize keep the aspect ratio.
		width, height = maxThumbnailSide, 0
	}
	resized := resize.Resize(width, height, img, resize.Lanczos3)

	var buf bytes.Buffer
	if format == "png" {
		err = png.Encode(&buf, resized)
	} else {
		err = jpeg.Encode(&buf, resized, nil)
	}
	if err != nil {
		h.logger.Error("encode image", "recipeID", recipe.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to encode image")
		return
	}

	w.Header().Set("Content-Type", "image/"+format)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("write image", "recipeID", recipe.ID, "error", err)
	}
}

// fetch downloads and decodes a JPEG or PNG image. The header is checked
// against the format and pixel limits before the pixels are decoded.
func (h *ImageHandler) fetch(r *http.Request, url string) (image.Image, string, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("get image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image header: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return nil, "", fmt.Errorf("%w: %s", errUnsupportedFormat, format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return nil, "", fmt.Errorf("%w: %dx%d", errImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}
