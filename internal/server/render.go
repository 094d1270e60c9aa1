package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/inamate/motion/internal/document"
	"github.com/inamate/motion/internal/render/raster"
	"github.com/inamate/motion/internal/render/svg"
	"github.com/inamate/motion/internal/render/video"
	"github.com/inamate/motion/internal/scene"
	"github.com/inamate/motion/internal/typeid"
)

const maxScriptSize = 10 << 20 // 10MB, inline images included

// Render handles POST /api/render: it runs the posted script offline and
// returns the result. png and svg return the last frame; mp4, gif and webm
// return the encoded video.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	script, ok := s.decodeScript(w, r)
	if !ok {
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = s.cfg.Format
	}
	id := typeid.NewRenderID()
	logger := s.logger.With("render", id, "script", script.ID, "format", format)
	logger.Info("render started")

	switch format {
	case "png":
		var last raster.Latest
		if err := s.run(r.Context(), script, raster.New(&last, logger)); err != nil {
			s.runError(w, err)
			return
		}
		data, err := last.PNG()
		if err != nil {
			s.runError(w, err)
			return
		}
		writeFile(w, "image/png", filename(script.Name, format), data)

	case "svg":
		var last svg.Latest
		if err := s.run(r.Context(), script, &last); err != nil {
			s.runError(w, err)
			return
		}
		writeFile(w, "image/svg+xml", filename(script.Name, format), last.Bytes())

	default:
		vf, err := video.ParseFormat(format)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.renderVideo(w, r, script, vf)
		return
	}
	logger.Info("render complete")
}

func (s *Server) renderVideo(w http.ResponseWriter, r *http.Request, script *document.Script, format video.Format) {
	tempDir, err := os.MkdirTemp("", "motion-render-*")
	if err != nil {
		s.logger.Error("create temp dir", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer os.RemoveAll(tempDir)

	output := filepath.Join(tempDir, "output."+string(format))
	enc, err := video.Start(r.Context(), video.Options{
		FFmpegPath: s.cfg.FfmpegPath,
		Format:     format,
		FPS:        script.Settings.FPS,
		Output:     output,
		Logger:     s.logger,
	})
	if err != nil {
		s.logger.Error("start encoder", "error", err)
		writeError(w, http.StatusInternalServerError, "encoding failed")
		return
	}
	runErr := s.run(r.Context(), script, raster.New(enc, s.logger))
	if err := enc.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		s.runError(w, runErr)
		return
	}

	out, err := os.Open(output)
	if err != nil {
		s.logger.Error("open output file", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer out.Close()
	stat, err := out.Stat()
	if err != nil {
		s.logger.Error("stat output file", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename(script.Name, string(format))))
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	io.Copy(w, out)
	s.logger.Info("render complete", "format", format, "size", stat.Size())
}

func (s *Server) run(ctx context.Context, script *document.Script, r scene.Renderer) error {
	return s.newEngine(scene.OfflineClock{}, s.logger).Run(ctx, script, r)
}

func (s *Server) decodeScript(w http.ResponseWriter, r *http.Request) (*document.Script, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxScriptSize)
	script, err := document.Decode(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return script, true
}

// runError maps script failures to 422 and everything else to 500.
func (s *Server) runError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	s.logger.Error("render failed", "error", err)
	if isScriptError(err) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "render failed: "+err.Error())
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// filename keeps a download name to letters, digits, dashes and underscores.
func filename(name, ext string) string {
	if name == "" {
		name = "animation"
	}
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
	return name + "." + ext
}
