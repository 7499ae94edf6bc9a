package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/siuno/teamfund-api/api"
	"github.com/siuno/teamfund-api/config"
	"github.com/siuno/teamfund-api/models"
)

const maxProofSize = 5 << 20 // 5MB

// Upload handles payment proof uploads to Cloudinary. The ledger only
// ever stores the returned URL.
type Upload struct {
	cld *cloudinary.Cloudinary
}

// NewUpload builds the handler from the CLOUDINARY_URL environment
// variable.
func NewUpload() (*Upload, error) {
	cld, err := cloudinary.New()
	if err != nil {
		return nil, err
	}
	return &Upload{cld: cld}, nil
}

// ProofUploadHandler accepts a multipart image or PDF and returns the
// hosted URL for use as a transaction or payment request proof.
func (u *Upload) ProofUploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxProofSize); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}
	file, header, err := r.FormFile("proofImage")
	if err != nil {
		config.DomainError("failed to upload proof", w, models.NewValidationError("proofImage file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		config.DomainError("failed to upload proof", w, models.NewValidationError("unsupported proof type: %s", contentType))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: "teamfund/proofs",
	})
	if err != nil {
		config.ErrorStatus("failed to upload to cloudinary", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": resp.SecureURL})
}

// GenerateSignature generates a signature for direct Cloudinary
// uploads from the client.
func (u *Upload) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	uploadPreset := os.Getenv("CLOUDINARY_UPLOAD_PRESET")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	h := hmac.New(sha1.New, []byte(apiSecret))
	h.Write([]byte("timestamp=" + timestamp + "&upload_preset=" + uploadPreset))
	signature := hex.EncodeToString(h.Sum(nil))

	response := map[string]string{
		"timestamp": timestamp,
		"signature": signature,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
