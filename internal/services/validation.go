package services

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/serverwatch/availability-watch/internal/domain"
)

// Submission is the raw watch form. RemoteIP and PushbulletToken are not
// user-editable: the HTTP layer fills them from the connection and session.
type Submission struct {
	Mail    string `form:"mail"    json:"mail"    validate:"required,min=5,max=100,email"`
	Zone    string `form:"zone"    json:"zone"    validate:"required,zone"`
	Server  string `form:"server"  json:"server"  validate:"required,reference"`
	Phone   string `form:"phone"   json:"phone"   validate:"required_with=Country"`
	Country string `form:"country" json:"country" validate:"required_with=Phone"`
	Captcha string `form:"g-recaptcha-response" json:"captcha"`

	RemoteIP        string `form:"-" json:"-"`
	PushbulletToken string `form:"-" json:"-"`
}

// normalize trims user input in place. Case is preserved for display and
// lowered only at lookup and storage time.
func (s *Submission) normalize() {
	s.Mail = strings.TrimSpace(s.Mail)
	s.Zone = strings.TrimSpace(s.Zone)
	s.Server = strings.TrimSpace(s.Server)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Country = strings.TrimSpace(s.Country)
}

type refsKey struct{}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("zone", func(fl validator.FieldLevel) bool {
		return domain.Zone(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidationCtx("reference", func(ctx context.Context, fl validator.FieldLevel) bool {
		refs, _ := ctx.Value(refsKey{}).(map[string]struct{})
		_, ok := refs[domain.NormalizeKey(fl.Field().String())]
		return ok
	})
	return v
}

// validateSubmission checks s against the field rules and the set of valid
// references. It returns nil when every field is valid.
func validateSubmission(ctx context.Context, s *Submission, refs []string) FieldErrors {
	set := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		set[domain.NormalizeKey(r)] = struct{}{}
	}
	err := validate.StructCtx(context.WithValue(ctx, refsKey{}, set), s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"form": MsgFieldInvalid}
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		switch fe.Tag() {
		case "required", "required_with":
			out[fe.Field()] = MsgFieldRequired
		default:
			out[fe.Field()] = MsgFieldInvalid
		}
	}
	return out
}
