package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/internal/application"
	"github.com/oksasatya/go-auth-service/pkg/apperror"
	"github.com/oksasatya/go-auth-service/pkg/mailer"
	mailtpl "github.com/oksasatya/go-auth-service/pkg/mailer/templates"
	"github.com/oksasatya/go-auth-service/pkg/response"
)

type EmailHandler struct {
	Mail   application.Mailer
	Logger logrus.FieldLogger
}

func NewEmailHandler(mail application.Mailer, logger logrus.FieldLogger) *EmailHandler {
	return &EmailHandler{Mail: mail, Logger: logger}
}

type sendEmailRequest struct {
	To       string         `json:"to" binding:"required,email"`
	Template string         `json:"template"` // optional: verify_email, forgot_password, profile_updated
	Data     map[string]any `json:"data"`     // optional template data
	Subject  string         `json:"subject"`  // required if no template
	Text     string         `json:"text"`     // optional if html provided
	HTML     string         `json:"html"`     // optional if text provided
}

// Send POST /email/send hands an email job to the dispatcher.
func (h *EmailHandler) Send(c *gin.Context) {
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	job := mailer.EmailJob{To: req.To}
	switch {
	case req.Template != "":
		if !mailtpl.Known(req.Template) {
			respondError(c, h.Logger, apperror.Validation("unknown template").WithInfo(map[string]string{"template": "is not a known template"}))
			return
		}
		job.Template = req.Template
		job.Data = req.Data
		job.Subject = req.Subject
	case req.Subject == "" || (req.Text == "" && req.HTML == ""):
		respondError(c, h.Logger, apperror.Validation("either template or subject with text/html is required"))
		return
	default:
		job.Subject = req.Subject
		job.Text = req.Text
		job.HTML = req.HTML
	}

	if err := h.Mail.Dispatch(c.Request.Context(), job); err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("to", job.To).Warn("failed to dispatch email job")
		}
		response.Error(c, http.StatusBadGateway, "failed to dispatch email", nil)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"accepted": true}, "email accepted")
}
