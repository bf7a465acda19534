package handlers

import (
	"errors"
	"net/http"

	"churn-predictor-api/pkg/form"
	"churn-predictor-api/pkg/presentation"
	"churn-predictor-api/pkg/session"
	"churn-predictor-api/pkg/web"

	"github.com/gin-gonic/gin"
)

// PageField is one input of the rendered form.
type PageField struct {
	Name  string
	Label string
	Value string
	Error string
}

// PageData is the model of the form page.
type PageData struct {
	Title         string
	Subtitle      string
	Fields        []PageField
	ButtonLabel   string
	SubmitEnabled bool
	Result        *presentation.DisplayModel
	Error         string
}

// PageHandler renders the HTML form and handles classic form posts.
type PageHandler struct {
	newController ControllerFactory
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(newController ControllerFactory) *PageHandler {
	return &PageHandler{newController: newController}
}

// Index renders an empty form.
func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, web.IndexTemplate, newPageData(form.New(), presentation.ViewState(session.State{})))
}

// Submit predicts from a posted form and re-renders it with the outcome.
// The entered values are kept on every path.
func (h *PageHandler) Submit(c *gin.Context) {
	f := form.New()
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form submission")
		return
	}
	for name, values := range c.Request.PostForm {
		if len(values) == 0 {
			continue
		}
		// unknown inputs are ignored
		_ = f.UpdateField(name, values[0])
	}

	st, err := predictOnce(c.Request.Context(), h.newController, f)
	if err != nil {
		data := newPageData(f, presentation.ViewState(session.State{}))
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			for i := range data.Fields {
				if data.Fields[i].Name == string(verr.Field) {
					data.Fields[i].Error = verr.Error()
				}
			}
		} else {
			data.Error = presentation.FailureMessage
		}
		_ = c.Error(err)
		c.HTML(statusFor(err), web.IndexTemplate, data)
		return
	}

	data := newPageData(f, presentation.ViewState(st))
	status := http.StatusOK
	if st.Status == session.StatusFailed {
		_ = c.Error(st.Err)
		status = http.StatusBadGateway
	}
	c.HTML(status, web.IndexTemplate, data)
}

func newPageData(f *form.Form, view presentation.SessionView) PageData {
	fields := make([]PageField, 0, len(form.Fields))
	for _, field := range form.Fields {
		fields = append(fields, PageField{
			Name:  string(field),
			Label: presentation.FieldLabels[field],
			Value: f.Value(field),
		})
	}
	return PageData{
		Title:         presentation.Title,
		Subtitle:      presentation.Subtitle,
		Fields:        fields,
		ButtonLabel:   view.ButtonLabel,
		SubmitEnabled: view.SubmitEnabled,
		Result:        view.Result,
		Error:         view.Error,
	}
}
