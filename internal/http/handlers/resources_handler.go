package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Resources godoc
// @ID          getResources
// @Summary     Form read model
// @Description Returns both server catalogs and the request statistics, loaded in parallel. The flat reference list is only included when references=true.
// @Tags        Resources
// @Produce     json
//
// @Param       references  query  bool  false  "Include the list of valid references"  default(false)
//
// @Success     200  {object}  services.Resources
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /api/v1/resources [get]
func (h *Handlers) Resources(c *gin.Context) {
	withRefs := false
	if raw := c.Query("references"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "references must be a boolean")
			return
		}
		withRefs = v
	}

	res, err := h.resSvc.Load(c.Request.Context(), withRefs)
	if err != nil {
		status, code, msg, _ := classify(err)
		logServerError(c, status, code, err)
		c.AbortWithStatusJSON(status, newErrorResponse(c, code, msg))
		return
	}
	ok(c, http.StatusOK, res)
}
