package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/pipeline"
	"github.com/kbukum/audioreport/server"
	"github.com/kbukum/audioreport/validation"
)

// TranscriptionResponse is the JSON body of POST /v1/transcriptions.
type TranscriptionResponse struct {
	RequestID      string               `json:"request_id"`
	Status         pipeline.Status      `json:"status"`
	Transcription  string               `json:"transcription"`
	ProcessingTime float64              `json:"processing_time"`
	ReportBody     string               `json:"report_body,omitempty"`
	Report         *ReportLink          `json:"report,omitempty"`
	Error          *apperrors.ErrorBody `json:"error,omitempty"`
}

// ReportLink locates a generated report.
type ReportLink struct {
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
	// PublicURL is set when the report was also published remotely.
	PublicURL string `json:"public_url,omitempty"`
}

// transcriptionForm only names allow-listed models. Custom checkpoints
// arrive as the custom_model upload, never as a server path.
type transcriptionForm struct {
	Model  string `form:"model" json:"model" validate:"omitempty,oneof=tiny base medium small large"`
	Format string `form:"format" json:"format" validate:"max=16"`
}

// Transcribe handles POST /v1/transcriptions.
func (h *Handler) Transcribe(c *gin.Context) {
	var form transcriptionForm
	if err := c.ShouldBind(&form); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("form", err.Error()))
		return
	}
	form.Model = strings.TrimSpace(form.Model)
	if err := validation.Validate(form); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if form.Model == "" {
		form.Model = DefaultModel
	}
	if strings.TrimSpace(form.Format) == "" {
		form.Format = DefaultFormat
	}

	dir, err := os.MkdirTemp(h.opts.UploadDir, "upload-")
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}
	defer os.RemoveAll(dir)

	audioPath, err := h.saveUpload(c, "audio", dir)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	customPath, err := h.saveUpload(c, "custom_model", dir)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	if h.opts.Serialize {
		h.mu.Lock()
		defer h.mu.Unlock()
	}

	resp := h.processor.Process(c.Request.Context(), pipeline.Request{
		AudioPath:   audioPath,
		Model:       form.Model,
		CustomModel: customPath,
		Format:      form.Format,
	})
	c.JSON(http.StatusOK, toResponse(resp))
}

// saveUpload stores the form file field in dir and returns its path, or ""
// when the field is absent.
func (h *Handler) saveUpload(c *gin.Context, field, dir string) (string, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.InvalidInput(field, err.Error())
	}
	name := uploadName(field, fh)
	dst := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", apperrors.Internal(err)
	}
	h.log.WithContext(c.Request.Context()).Debug("upload saved", logger.Fields(
		"field", field, "size", fh.Size, logger.FieldAudioPath, dst,
	))
	return dst, nil
}

// uploadName keeps the client's extension, which decoders use to pick a
// demuxer, and nothing else from the client-supplied name.
func uploadName(field string, fh *multipart.FileHeader) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(fh.Filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return field + ext
}

func toResponse(resp pipeline.Response) TranscriptionResponse {
	out := TranscriptionResponse{
		RequestID:      resp.RequestID,
		Status:         resp.Status,
		Transcription:  resp.DisplayText,
		ProcessingTime: resp.ElapsedSeconds,
		ReportBody:     resp.ReportBody,
	}
	if resp.ReportPath != "" {
		out.Report = &ReportLink{
			Name:        resp.ReportName,
			DownloadURL: "/v1/reports/" + resp.ReportName,
			PublicURL:   resp.ReportURL,
		}
	}
	if resp.Err != nil {
		appErr, ok := apperrors.AsAppError(resp.Err)
		if !ok {
			appErr = apperrors.Internal(resp.Err)
		}
		body := appErr.ToResponse().Error
		out.Error = &body
	}
	return out
}
