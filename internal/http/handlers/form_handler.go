package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serverwatch/availability-watch/internal/services"
)

// Index godoc
// @ID          index
// @Summary     Watch form
// @Description Renders the watch form with both server catalogs and the request statistics. When the session carries a Pushbullet token the mail field is pre-filled with the Pushbullet account mail.
// @Tags        Form
// @Produce     html
// @Produce     json
//
// @Success     200  {object}  handlers.IndexResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      / [get]
func (h *Handlers) Index(c *gin.Context) {
	res, err := h.resSvc.Load(c.Request.Context(), false)
	if err != nil {
		status, code, msg, _ := classify(err)
		renderError(c, status, code, msg, err)
		return
	}

	view := h.formView(c, res)
	render(c, http.StatusOK, viewIndex, view, IndexResponse{
		Resources:  res,
		Pushbullet: view.Pushbullet,
		Mail:       view.Values.Mail,
	})
}

// Submit godoc
// @ID          submitRequest
// @Summary     Register an availability watch
// @Description Runs the submission pipeline: field validation, phone normalization, human verification, uniqueness, provider availability, then persistence. Business rejections re-render the form with the submitted values.
// @Tags        Form
// @Accept      x-www-form-urlencoded
// @Accept      json
// @Produce     html
// @Produce     json
//
// @Param       body  body  services.Submission  true  "Watch form"
//
// @Success     201  {object}  handlers.RequestResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unreadable body"
// @Failure     409  {object}  handlers.ErrorResponse  "Already pending or already available"
// @Failure     422  {object}  handlers.ErrorResponse  "Invalid form, phone or human verification"
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream unavailable"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      / [post]
func (h *Handlers) Submit(c *gin.Context) {
	var sub services.Submission
	if err := c.ShouldBind(&sub); err != nil {
		renderError(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body", nil)
		return
	}
	sub.RemoteIP = c.ClientIP()
	sub.PushbulletToken, _ = session(c)

	ctx := c.Request.Context()
	res, err := h.resSvc.Load(ctx, true)
	if err != nil {
		status, code, msg, _ := classify(err)
		renderError(c, status, code, msg, err)
		return
	}

	req, err := h.subSvc.Submit(ctx, sub, res.References)

	view := h.formView(c, res)
	view.Values = sub
	if err != nil {
		status, code, msg, rej := classify(err)
		if rej == nil {
			renderError(c, status, code, msg, err)
			return
		}
		view.Error = true
		view.Message = msg
		view.Errors = rej.Fields
		body := newErrorResponse(c, code, msg)
		body.Fields = rej.Fields
		render(c, status, viewIndex, view, body)
		return
	}

	view.Success = true
	view.Message = services.MsgRequestRegistered
	render(c, http.StatusCreated, viewIndex, view, RequestResponse{
		Message: services.MsgRequestRegistered,
		Request: req,
	})
}
