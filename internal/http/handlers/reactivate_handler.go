package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serverwatch/availability-watch/internal/services"
)

// Reactivate godoc
// @ID          reactivateRequest
// @Summary     Reactivate a notified watch
// @Description Turns a notified watch back to pending and rotates its token. The link is single-use: the token in the path is revoked on success.
// @Tags        Form
// @Produce     html
// @Produce     json
//
// @Param       token  path  string  true  "Reactivation token (48 hex characters)"
//
// @Success     200  {object}  handlers.RequestResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Invalid token"
// @Failure     409  {object}  handlers.ErrorResponse  "Request still active"
// @Failure     502  {object}  handlers.ErrorResponse  "Store unavailable"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /request/reactivate/{token} [get]
func (h *Handlers) Reactivate(c *gin.Context) {
	req, err := h.reSvc.Reactivate(c.Request.Context(), c.Param("token"))
	if err != nil {
		status, code, msg, _ := classify(err)
		renderError(c, status, code, msg, err)
		return
	}

	render(c, http.StatusOK, viewReactivate,
		ReactivateView{Success: true, Message: services.MsgRequestReactivated, Request: req},
		RequestResponse{Message: services.MsgRequestReactivated, Request: req},
	)
}
