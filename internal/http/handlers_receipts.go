package http

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxReceiptSize = 10 << 20 // 10 MiB

var receiptExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

type receiptScanResponse struct {
	Amount   string `json:"amount,omitempty"`
	Date     string `json:"date,omitempty"`
	Merchant string `json:"merchant,omitempty"`
}

type receiptResponse struct {
	URL        string               `json:"url"`
	ScanFailed bool                 `json:"scan_failed"`
	Scan       *receiptScanResponse `json:"scan,omitempty"`
}

// handleUploadReceipt stores the uploaded file under the uploads directory
// and offers it to the OCR webhook for autofill. OCR failure never fails
// the upload.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptSize)
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !receiptExtensions[ext] {
		writeJSONError(w, http.StatusUnprocessableEntity, "unsupported file type")
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		writeError(w, r, err)
		return
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		writeError(w, r, err)
		return
	}

	resp := receiptResponse{URL: s.publicBaseURL + "/uploads/" + name}
	slog.InfoContext(r.Context(), "Receipt uploaded", "user_id", userID, "file", name, "size", header.Size)

	if s.ocr.Enabled() {
		scan, err := s.ocr.Scan(r.Context(), userID, resp.URL)
		switch {
		case err != nil || scan == nil:
			resp.ScanFailed = true
		default:
			resp.Scan = &receiptScanResponse{Date: scan.Date, Merchant: scan.Merchant}
			if scan.Amount.Cents > 0 {
				resp.Scan.Amount = scan.Amount.Decimal()
			}
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}
