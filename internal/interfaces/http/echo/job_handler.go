package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	app "github.com/mohammadpnp/data-import/internal/application/dataimport"
)

type JobHandler struct {
	useCase app.GetImportJob
	locales *LocaleResolver
}

func NewJobHandler(useCase app.GetImportJob, locales *LocaleResolver) *JobHandler {
	return &JobHandler{useCase: useCase, locales: locales}
}

func (h *JobHandler) GetImportJob(c echo.Context) error {
	out, err := h.useCase.Execute(c.Request().Context(), app.GetImportJobInput{
		Code: c.Param("code"),
	})
	if err != nil {
		p := printer(h.locales.Resolve(c))
		if errors.Is(err, app.ErrInvalidJobCode) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_job_code",
				Message: p.Sprintf(msgInvalidJobCode),
			}})
		}
		if errors.Is(err, app.ErrImportJobNotFound) {
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "not_found",
				Message: p.Sprintf(msgJobNotFound),
			}})
		}

		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: p.Sprintf(msgGetJobFailed),
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
