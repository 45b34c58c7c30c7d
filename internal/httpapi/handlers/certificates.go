package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"certify/internal/adapters/storage/localfs"
	"certify/internal/httpkit"
	"certify/internal/models"
	"certify/internal/pkg/errors"
	"certify/internal/ports"
)

// GetCertificate is the verification lookup behind the QR code.
func (h *Handler) GetCertificate(w http.ResponseWriter, r *http.Request) error {
	cert, err := h.certs.GetCertificate(r.Context(), chi.URLParam(r, "certificateId"))
	if err != nil {
		return err
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"certificate": cert})
	return nil
}

// GetCertificateImage streams the PNG of an issued certificate. Local
// certificates are read from the directory recorded at issue time; others
// need the API's storage provider to match.
func (h *Handler) GetCertificateImage(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	cert, err := h.certs.GetCertificate(ctx, chi.URLParam(r, "certificateId"))
	if err != nil {
		return err
	}
	sp, err := h.storageFor(cert)
	if err != nil {
		return err
	}

	rc, contentType, size, err := sp.GetObject(ctx, cert.ObjectKey)
	if err != nil {
		return err
	}
	defer rc.Close()

	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.log.FromContext(ctx).Warn("stream certificate image", "id", cert.ID, "error", err.Error())
	}
	return nil
}

func (h *Handler) storageFor(cert *models.IssuedCertificate) (ports.StorageProvider, error) {
	if cert.Storage == "localfs" && cert.Location != "" {
		return localfs.New(cert.Location), nil
	}
	if h.sp == nil || cert.Storage != h.sp.Provider() {
		return nil, errors.FailedPrecondition("certificate image is not served by this instance").
			WithOp("api.certificate_image").
			WithField("storage", cert.Storage)
	}
	return h.sp, nil
}
