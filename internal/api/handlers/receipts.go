package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/wealth-tracker/internal/ai"
	"github.com/dvloznov/wealth-tracker/internal/api/middleware"
)

// Scanning is capped well above any realistic phone photo.
const maxReceiptSize = 10 << 20

// ReceiptScanner extracts transaction fields from a receipt image.
type ReceiptScanner interface {
	ScanReceipt(ctx context.Context, image []byte, mimeType string) (ai.Receipt, error)
}

// ReceiptArchiver stores the original image and returns its object key.
type ReceiptArchiver interface {
	Archive(ctx context.Context, userID string, data []byte, contentType string) (string, error)
}

// ReceiptsHandler handles receipt scanning.
type ReceiptsHandler struct {
	scanner  ReceiptScanner
	archiver ReceiptArchiver
	log      zerolog.Logger
}

// NewReceiptsHandler creates the handler. archiver may be nil when no bucket
// is configured; scanning still works, the image just is not retained.
func NewReceiptsHandler(scanner ReceiptScanner, archiver ReceiptArchiver, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{scanner: scanner, archiver: archiver, log: log}
}

// Scan handles POST /api/receipts/scan. The image arrives as the "image"
// part of a multipart form; the response carries the extracted fields for the
// client to prefill a transaction form.
func (h *ReceiptsHandler) Scan(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if h.scanner == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Receipt scanning is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Expected multipart form with an image field")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Image is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp" {
		middleware.WriteError(w, http.StatusUnsupportedMediaType, "Image must be JPEG, PNG or WebP")
		return
	}

	image, err := io.ReadAll(io.LimitReader(file, maxReceiptSize+1))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read image")
		return
	}
	if len(image) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Image is required")
		return
	}
	if len(image) > maxReceiptSize {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Image too large")
		return
	}

	receipt, err := h.scanner.ScanReceipt(r.Context(), image, contentType)
	if err != nil {
		if errors.Is(err, ai.ErrNotReceipt) {
			middleware.WriteError(w, http.StatusUnprocessableEntity, "Image does not look like a receipt")
			return
		}
		h.log.Error().Err(err).Str("user_id", uid).Msg("Receipt scan failed")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to scan receipt")
		return
	}

	var receiptURL string
	if h.archiver != nil {
		key, err := h.archiver.Archive(r.Context(), uid, image, contentType)
		if err != nil {
			// Extraction succeeded; losing the archive copy is not fatal.
			h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to archive receipt image")
		} else {
			receiptURL = key
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"amount":        receipt.Amount,
		"date":          receipt.Date,
		"description":   receipt.Description,
		"merchant_name": receipt.MerchantName,
		"category":      receipt.Category,
		"receipt_url":   receiptURL,
	})
}
