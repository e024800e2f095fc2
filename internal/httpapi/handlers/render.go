package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"reelsmith/internal/compose"
	"reelsmith/internal/httpkit"
	"reelsmith/internal/pkg/errors"
	"reelsmith/internal/render"
	"reelsmith/internal/subtitles"
)

// renderPayload is the JSON document carried in the multipart "payload"
// text field.
type renderPayload struct {
	Spec struct {
		Width  int `json:"width"`
		Height int `json:"height"`
		FPS    int `json:"fps"`
	} `json:"spec"`
	Assets struct {
		BaseBackgroundURL string   `json:"base_background_url"`
		EndCardURL        string   `json:"end_card_url"`
		CardImageURLs     []string `json:"card_image_urls"`
	} `json:"assets"`
	Text struct {
		Title  string `json:"title"`
		Footer string `json:"footer"`
	} `json:"text"`
	Subtitles struct {
		Lines []subtitles.Line `json:"lines"`
	} `json:"subtitles"`
	Debug struct {
		DisableSubtitles bool `json:"disable_subtitles"`
	} `json:"debug"`
}

const multipartMemLimit = 8 << 20

// PostRender accepts the multipart render request, stages the uploaded
// audio, and drives the orchestrator. Validation failures return before
// anything is downloaded or spawned.
func (h *Handler) PostRender(w http.ResponseWriter, r *http.Request) {
	// Slack covers the payload field and multipart framing on top of the
	// audio size limit.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxAudioUploadBytes+(1<<20))

	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		httpkit.WriteErr(w, http.StatusBadRequest, "invalid multipart body: "+err.Error(), nil)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		httpkit.WriteErr(w, http.StatusBadRequest, "Missing multipart file field: audio", nil)
		return
	}
	defer file.Close()

	raw := r.FormValue("payload")
	if strings.TrimSpace(raw) == "" {
		httpkit.WriteErr(w, http.StatusBadRequest, "Missing multipart text field: payload", nil)
		return
	}
	var payload renderPayload
	if err := httpkit.DecodeJSONString(raw, &payload); err != nil {
		httpkit.WriteErr(w, http.StatusBadRequest, "invalid payload JSON: "+err.Error(), nil)
		return
	}

	jobID := uuid.NewString()
	audioPath, err := h.stageAudio(jobID, header.Filename, file)
	if err != nil {
		httpkit.WriteError(w, err, nil)
		return
	}

	job := &render.Job{
		ID: jobID,
		Spec: compose.Spec{
			Width:  payload.Spec.Width,
			Height: payload.Spec.Height,
			FPS:    payload.Spec.FPS,
		},
		BackgroundURL:    payload.Assets.BaseBackgroundURL,
		EndCardURL:       payload.Assets.EndCardURL,
		CardURLs:         payload.Assets.CardImageURLs,
		Title:            payload.Text.Title,
		Footer:           payload.Text.Footer,
		Lines:            payload.Subtitles.Lines,
		DisableSubtitles: payload.Debug.DisableSubtitles,
		AudioPath:        audioPath,
	}

	res, err := h.renderer.Render(r.Context(), job)
	if err != nil {
		h.writeRenderError(w, res, err)
		return
	}

	debug := map[string]any{
		"audio_ms":   res.AudioMS,
		"video_ms":   res.VideoMS,
		"elapsed_ms": res.ElapsedMS,
	}
	if res.Last != nil {
		debug["ffmpeg_last"] = res.Last
	}
	if len(res.Samples) > 0 {
		debug["ffmpeg_samples"] = res.Samples
	}
	if res.DisableSubtitles {
		debug["disable_subtitles"] = true
	}
	httpkit.WriteOK(w, map[string]any{
		"download_url": res.DownloadURL,
		"debug":        debug,
	})
}

func (h *Handler) writeRenderError(w http.ResponseWriter, res *render.Result, err error) {
	debug := map[string]any{}
	if res != nil {
		if res.Last != nil {
			debug["ffmpeg_last"] = res.Last
		}
		if len(res.Samples) > 0 {
			debug["ffmpeg_samples"] = res.Samples
		}
	}

	switch {
	case errors.IsCode(err, errors.CodeBusy):
		if h.rec != nil {
			h.rec.IncBusyRejections()
		}
		httpkit.WriteError(w, err, nil)
	case errors.IsCode(err, errors.CodeValidation):
		httpkit.WriteError(w, err, nil)
	case errors.IsCode(err, errors.CodeEncoderTimeout):
		httpkit.WriteError(w, err, debug)
	default:
		debug["code"] = string(errors.GetCode(err))
		httpkit.WriteError(w, err, debug)
	}
}

// stageAudio copies the uploaded audio into the staging root under the
// job's identity. The orchestrator owns the file from here on.
func (h *Handler) stageAudio(jobID, filename string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "" || len(ext) > 5 {
		ext = ".mp3"
	}
	path := filepath.Join(h.cfg.UploadDir, jobID+ext)

	dst, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "handlers.stageAudio", "creating staged audio file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", errors.Wrap(err, "handlers.stageAudio", "writing staged audio file")
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", errors.Wrap(err, "handlers.stageAudio", "closing staged audio file")
	}
	return path, nil
}
