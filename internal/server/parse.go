package server

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/splitsmart/splitsmart/internal/genai"
	"github.com/splitsmart/splitsmart/internal/models"
)

// maxImageBytes bounds uploaded receipt photos. Phone camera JPEGs sit well
// under this.
const maxImageBytes = 10 << 20

// ReceiptParser extracts structured receipt data from an image. Configured
// reports whether a real model credential is present; without one the parser
// serves a fixed demo receipt and needs no image at all.
type ReceiptParser interface {
	Configured() bool
	ParseReceipt(ctx context.Context, image []byte, mimeType string) (models.ParsedReceipt, string, error)
}

type parseReceiptJSON struct {
	DataURL     string `json:"dataUrl"`
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
}

// parseReceipt accepts either a multipart upload (field "image") or a JSON
// body carrying a data URL / base64 payload, runs the vision model, and
// returns the parsed receipt without touching any session. With no model
// credential the demo receipt comes back before the body is read, so a
// credential-less client needs no dummy upload.
func (h *Handlers) parseReceipt(w http.ResponseWriter, r *http.Request) {
	var image []byte
	var mime string
	if h.receipts.Configured() {
		var err error
		image, mime, err = readReceiptImage(r)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	parsed, model, err := h.receipts.ParseReceipt(r.Context(), image, mime)
	if err != nil {
		var upstream *genai.UpstreamError
		if errors.As(err, &upstream) {
			respondJSON(w, http.StatusBadGateway, errorResponse{Error: upstream.Message})
			return
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"receipt": parsed,
		"model":   model,
	})
}

func readReceiptImage(r *http.Request) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			return nil, "", errors.New("invalid multipart body")
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, "", errors.New("missing image file field")
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		if err != nil {
			return nil, "", errors.New("could not read image upload")
		}
		if len(data) > maxImageBytes {
			return nil, "", errors.New("image too large")
		}
		mime := header.Header.Get("Content-Type")
		if mime == "" {
			mime = "image/jpeg"
		}
		return data, mime, nil
	}

	var body parseReceiptJSON
	if err := decodeJSONLimited(r, &body, maxImageBytes*2); err != nil {
		return nil, "", errors.New("invalid JSON body")
	}

	encoded := body.ImageBase64
	mime := body.MimeType
	if body.DataURL != "" {
		var err error
		encoded, mime, err = splitDataURL(body.DataURL)
		if err != nil {
			return nil, "", err
		}
	}
	if encoded == "" {
		return nil, "", errors.New("no image provided")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", errors.New("invalid base64 image data")
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty image")
	}
	if len(data) > maxImageBytes {
		return nil, "", errors.New("image too large")
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	return data, mime, nil
}

// splitDataURL unpacks "data:image/png;base64,AAAA..." into its parts.
func splitDataURL(dataURL string) (encoded, mime string, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", "", errors.New("invalid data URL")
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", errors.New("invalid data URL")
	}
	mime, _, _ = strings.Cut(meta, ";")
	if !strings.Contains(meta, "base64") {
		return "", "", errors.New("data URL must be base64 encoded")
	}
	return encoded, mime, nil
}
