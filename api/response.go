package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/assetgraph/errors"
)

// DataResponse is the success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError writes err in the error envelope with the status its
// code maps to.
func RespondWithError(c *gin.Context, err error) {
	appErr := errors.From(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, appErr.ToResponse())
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}
