package echo

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/message"

	app "github.com/mohammadpnp/data-import/internal/application/dataimport"
	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

type ImportHandler struct {
	importPayload app.ImportPayload
	importFile    app.ImportLocalFile
	tokens        TokenAuthorities
	locales       *LocaleResolver
	log           logrus.FieldLogger
}

type importFileRequest struct {
	Path string `json:"path"`
	Move bool   `json:"move"`
}

type importPayloadResponse struct {
	app.ImportPayloadOutput
	Detail string `json:"detail"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func NewImportHandler(importPayload app.ImportPayload, importFile app.ImportLocalFile, tokens TokenAuthorities, locales *LocaleResolver, log logrus.FieldLogger) *ImportHandler {
	return &ImportHandler{
		importPayload: importPayload,
		importFile:    importFile,
		tokens:        tokens,
		locales:       locales,
		log:           log,
	}
}

func (h *ImportHandler) ImportData(c echo.Context) error {
	locale := h.locales.Resolve(c)
	p := printer(locale)

	authorities, ok := h.tokens.Lookup(c.Request().Header.Get(HeaderAPIToken))
	if !ok {
		return c.JSON(http.StatusUnauthorized, apiResponse{Error: &errorBody{
			Code:    "unauthorized",
			Message: p.Sprintf(msgUnauthorized),
		}})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: p.Sprintf(msgBadBody),
		}})
	}

	out, err := h.importPayload.Execute(c.Request().Context(), app.ImportPayloadInput{
		ProcessType: c.Param("processType"),
		ItemType:    c.Param("itemType"),
		Body:        body,
		Authorities: authorities,
	})
	if err != nil {
		return h.importError(c, p, out, err)
	}

	return c.JSON(http.StatusOK, apiResponse{Data: importPayloadResponse{
		ImportPayloadOutput: out,
		Detail:              p.Sprintf(msgImportSucceeded, out.Rows),
	}})
}

func (h *ImportHandler) importError(c echo.Context, p *message.Printer, out app.ImportPayloadOutput, err error) error {
	var unknownType *domain.UnknownTypeError
	switch {
	case errors.Is(err, app.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, apiResponse{Error: &errorBody{
			Code:    "forbidden",
			Message: p.Sprintf(msgForbidden),
		}})
	case errors.Is(err, domain.ErrInvalidProcess):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "invalid_process",
			Message: p.Sprintf(msgInvalidProcess),
		}})
	case errors.As(err, &unknownType):
		return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
			Code:    "unknown_item_type",
			Message: p.Sprintf(msgUnknownItemType, unknownType.Name),
		}})
	case errors.Is(err, app.ErrInvalidPayload):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "invalid_payload",
			Message: p.Sprintf(msgInvalidPayload),
		}})
	case errors.Is(err, app.ErrImportFailed):
		return c.JSON(http.StatusUnprocessableEntity, apiResponse{
			Data: importPayloadResponse{ImportPayloadOutput: out, Detail: p.Sprintf(msgImportFailed, out.JobCode)},
			Error: &errorBody{
				Code:    "import_failed",
				Message: out.Message,
			},
		})
	}

	h.log.WithField("item_type", c.Param("itemType")).Errorf("import data: %v", err)
	return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
		Code:    "internal_error",
		Message: p.Sprintf(msgImportError),
	}})
}

func (h *ImportHandler) ImportFile(c echo.Context) error {
	p := printer(h.locales.Resolve(c))

	authorities, ok := h.tokens.Lookup(c.Request().Header.Get(HeaderAPIToken))
	if !ok {
		return c.JSON(http.StatusUnauthorized, apiResponse{Error: &errorBody{
			Code:    "unauthorized",
			Message: p.Sprintf(msgUnauthorized),
		}})
	}

	var req importFileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: p.Sprintf(msgInvalidFileBody),
		}})
	}

	out, err := h.importFile.Execute(c.Request().Context(), app.ImportLocalFileInput{
		Path:        req.Path,
		Move:        req.Move,
		Authorities: authorities,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrPermissionDenied):
			return c.JSON(http.StatusForbidden, apiResponse{Error: &errorBody{
				Code:    "forbidden",
				Message: p.Sprintf(msgForbidden),
			}})
		case errors.Is(err, app.ErrInvalidImportFile):
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_file",
				Message: p.Sprintf(msgInvalidFile),
			}})
		case errors.Is(err, app.ErrImportFailed):
			return c.JSON(http.StatusUnprocessableEntity, apiResponse{Data: out, Error: &errorBody{
				Code:    "import_failed",
				Message: out.Message,
			}})
		}
		h.log.WithField("file", req.Path).Errorf("import file: %v", err)
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: p.Sprintf(msgImportError),
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ImportHandler) HeartBeat(c echo.Context) error {
	return c.JSON(http.StatusOK, apiResponse{Data: map[string]string{"status": "UP"}})
}
