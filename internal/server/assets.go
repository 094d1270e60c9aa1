package server

import (
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/inamate/motion/internal/typeid"
)

const maxAssetSize = 10 << 20 // 10MB

var assetTypes = []string{"image/png", "image/jpeg", "image/webp"}

// AssetResponse is returned from the upload endpoint. Scripts reference
// the asset from an image object as {"asset": id}.
type AssetResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// UploadAsset handles POST /api/assets (multipart form with a "file"
// field). Images are stored as PNG under the asset directory.
func (s *Server) UploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAssetSize)
	if err := r.ParseMultipartForm(maxAssetSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large (max 10MB)")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !supportedAsset(contentType) {
		writeError(w, http.StatusBadRequest, "only PNG, JPEG and WebP images are supported")
		return
	}
	img, _, err := image.Decode(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image: "+err.Error())
		return
	}

	if err := os.MkdirAll(s.cfg.AssetDir, 0o755); err != nil {
		s.logger.Error("create asset dir", "error", err, "dir", s.cfg.AssetDir)
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}
	id := typeid.NewAssetID()
	path := filepath.Join(s.cfg.AssetDir, id+".png")
	out, err := os.Create(path)
	if err != nil {
		s.logger.Error("create asset file", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		s.logger.Error("encode png", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to encode image")
		return
	}
	if err := out.Close(); err != nil {
		s.logger.Error("close asset file", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	b := img.Bounds()
	s.logger.Info("asset stored", "asset", id, "width", b.Dx(), "height", b.Dy())
	writeJSON(w, http.StatusCreated, AssetResponse{
		ID:     id,
		URL:    "/assets/" + id + ".png",
		Width:  b.Dx(),
		Height: b.Dy(),
		Name:   header.Filename,
	})
}

// Assets serves stored asset files. Ids are unique so files never change.
func (s *Server) Assets() http.Handler {
	fs := http.FileServer(http.Dir(s.cfg.AssetDir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

func supportedAsset(contentType string) bool {
	for _, t := range assetTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}
