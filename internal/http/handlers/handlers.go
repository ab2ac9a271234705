// Watch form HTTP handlers.
//
// This file declares the service contracts consumed by the handlers, the
// Handlers wiring and the view models rendered by the templates. Handlers are
// transport-thin: they bind input, read the session cookies, call the
// services and translate results into views or JSON.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/serverwatch/availability-watch/internal/domain"
	"github.com/serverwatch/availability-watch/internal/phone"
	"github.com/serverwatch/availability-watch/internal/services"
)

//
// Service contracts (context-aware)
//

// SubmissionService runs the watch submission pipeline.
type SubmissionService interface {
	// Submit validates sub against refs and registers a pending watch.
	Submit(ctx context.Context, sub services.Submission, refs []string) (*domain.AvailabilityRequest, error)
}

// ReactivationService runs the reactivation pipeline.
type ReactivationService interface {
	// Reactivate turns a notified watch back to pending and rotates its token.
	Reactivate(ctx context.Context, token string) (*domain.AvailabilityRequest, error)
}

// ResourceService loads the form read model.
type ResourceService interface {
	// Load fetches catalogs and statistics, plus references when asked.
	Load(ctx context.Context, withReferences bool) (*services.Resources, error)
}

//
// Handler wiring
//

// Session cookies set by the Pushbullet sign-in flow.
const (
	CookiePushbulletToken = "pushbullet_token"
	CookiePushbulletEmail = "pushbullet_email"
)

// PageOptions carries the static data rendered into the form.
type PageOptions struct {
	CaptchaProvider  string
	RecaptchaSiteKey string
	Countries        []phone.Country
}

// Handlers groups the HTTP endpoints of the service.
type Handlers struct {
	subSvc SubmissionService
	reSvc  ReactivationService
	resSvc ResourceService
	page   PageOptions
}

// New constructs a Handlers instance bound to the given services.
func New(subSvc SubmissionService, reSvc ReactivationService, resSvc ResourceService, page PageOptions) *Handlers {
	return &Handlers{subSvc: subSvc, reSvc: reSvc, resSvc: resSvc, page: page}
}

// session returns the Pushbullet token and account mail carried by cookies.
func session(c *gin.Context) (token, mail string) {
	token, _ = c.Cookie(CookiePushbulletToken)
	mail, _ = c.Cookie(CookiePushbulletEmail)
	return token, mail
}

//
// Views and DTOs
//

// FormView is the data of the index view.
type FormView struct {
	Resources        *services.Resources
	Countries        []phone.Country
	Values           services.Submission
	Errors           services.FieldErrors
	Success          bool
	Error            bool
	Message          string
	Pushbullet       bool
	CaptchaProvider  string
	RecaptchaSiteKey string
}

func (h *Handlers) formView(c *gin.Context, res *services.Resources) FormView {
	token, mail := session(c)
	v := FormView{
		Resources:        res,
		Countries:        h.page.Countries,
		Pushbullet:       token != "",
		CaptchaProvider:  h.page.CaptchaProvider,
		RecaptchaSiteKey: h.page.RecaptchaSiteKey,
	}
	if v.Pushbullet {
		v.Values.Mail = mail
	}
	return v
}

// ReactivateView is the data of the reactivation view.
type ReactivateView struct {
	Success bool
	Error   bool
	Message string
	Request *domain.AvailabilityRequest
}

// RequestResponse is the JSON body of a successful submission or reactivation.
type RequestResponse struct {
	Message string                      `json:"message" example:"Your request has been registered."`
	Request *domain.AvailabilityRequest `json:"request"`
}

// IndexResponse is the JSON body of the form page.
type IndexResponse struct {
	Resources  *services.Resources `json:"resources"`
	Pushbullet bool                `json:"pushbullet"`
	Mail       string              `json:"mail,omitempty"`
}
