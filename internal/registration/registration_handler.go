package registration

import (
	"mime/multipart"
	"net/http"

	registrationerrors "callsync/internal/registration/errors"
	"callsync/internal/shared/apperror"
	"callsync/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service          Service
	maxDocumentBytes int64
	logger           *zap.Logger
}

func NewHandler(service Service, maxDocumentBytes int64, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("registration.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("registration.handler")
	}
	if maxDocumentBytes <= 0 {
		maxDocumentBytes = 10 << 20
	}
	return &Handler{service: service, maxDocumentBytes: maxDocumentBytes, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("registration request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) UploadDocuments(c *gin.Context) {
	idProofHeader, err1 := c.FormFile("idProof")
	photoHeader, err2 := c.FormFile("photo")
	if err1 != nil || err2 != nil {
		h.writeServiceError(c, registrationerrors.ErrDocumentsMissing)
		return
	}
	if idProofHeader.Size > h.maxDocumentBytes || photoHeader.Size > h.maxDocumentBytes {
		h.writeServiceError(c, registrationerrors.ErrDocumentTooLarge)
		return
	}

	idProof, err := openDocument(idProofHeader)
	if err != nil {
		h.writeServiceError(c, registrationerrors.ErrDocumentsMissing)
		return
	}
	defer idProof.close()

	photo, err := openDocument(photoHeader)
	if err != nil {
		h.writeServiceError(c, registrationerrors.ErrDocumentsMissing)
		return
	}
	defer photo.close()

	resp, err := h.service.UploadDocuments(c.Request.Context(), c.Param("id"), Documents{
		IDProof: idProof.doc,
		Photo:   photo.doc,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Documents uploaded", resp, nil)
}

type openedDocument struct {
	doc  Document
	file multipart.File
}

func (d openedDocument) close() { _ = d.file.Close() }

func openDocument(fh *multipart.FileHeader) (openedDocument, error) {
	f, err := fh.Open()
	if err != nil {
		return openedDocument{}, err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return openedDocument{
		doc:  Document{Body: f, Name: fh.Filename, ContentType: contentType},
		file: f,
	}, nil
}

func (h *Handler) CompleteRegistration(c *gin.Context) {
	resp, err := h.service.CompleteRegistration(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Registration completed", resp, nil)
}

func (h *Handler) Activate(c *gin.Context) {
	var req ActivateRequest
	// The body is optional on this endpoint.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
	}

	resp, err := h.service.Activate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Employee activated", resp, nil)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Registration successful", resp, nil)
}

func (h *Handler) SendCode(c *gin.Context) {
	var req SendCodeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
	}

	resp, err := h.service.IssueTempCode(c.Request.Context(), req.EmployeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Code sent", resp, nil)
}

func (h *Handler) ValidateCode(c *gin.Context) {
	var req ValidateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.ValidateCode(c.Request.Context(), req.Code)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Code accepted", resp, nil)
}
