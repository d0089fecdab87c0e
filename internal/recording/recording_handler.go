package recording

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	recordingerrors "callsync/internal/recording/errors"
	"callsync/internal/shared/apperror"
	"callsync/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service        Service
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewHandler(service Service, maxUploadBytes int64, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("recording.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("recording.handler")
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 << 20
	}
	return &Handler{service: service, maxUploadBytes: maxUploadBytes, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("recording request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeServiceError(c, recordingerrors.ErrAudioTooLarge)
			return
		}
		h.writeServiceError(c, recordingerrors.ErrAudioRequired)
		return
	}
	if fh.Size > h.maxUploadBytes {
		h.writeServiceError(c, recordingerrors.ErrAudioTooLarge)
		return
	}

	var req UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.writeServiceError(c, recordingerrors.ErrAudioRequired)
		return
	}
	defer f.Close()

	resp, err := h.service.Store(c.Request.Context(), req, Payload{
		Body:        f,
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Recording uploaded successfully", resp, nil)
}

// Stream copies the payload to the client without buffering it.
func (h *Handler) Stream(c *gin.Context) {
	stream, err := h.service.Retrieve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	defer stream.Body.Close()

	headers := map[string]string{}
	if stream.Name != "" {
		headers["Content-Disposition"] = mime.FormatMediaType("inline", map[string]string{"filename": stream.Name})
	}

	c.DataFromReader(http.StatusOK, stream.Size, stream.ContentType, stream.Body, headers)
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	resp, total, err := h.service.List(c.Request.Context(), ListQuery{
		EmployeeID: c.Query("employee_id"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, "Recordings fetched", resp, &meta)
}

func (h *Handler) Purge(c *gin.Context) {
	if err := h.service.Purge(c.Request.Context(), c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Recording deleted", gin.H{"deleted": true}, nil)
}
