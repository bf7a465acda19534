package handlers

import (
	"context"
	"net/http"

	"churn-predictor-api/pkg/presentation"
	"churn-predictor-api/pkg/session"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes form sessions: edit fields, submit, poll, cancel.
type SessionHandler struct {
	store *session.Store
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

type sessionResponse struct {
	ID     string                   `json:"id"`
	Fields map[string]string        `json:"fields"`
	View   presentation.SessionView `json:"view"`
}

func newSessionResponse(sess *session.Session, st session.State) sessionResponse {
	return sessionResponse{
		ID:     sess.ID,
		Fields: sess.Form.Values(),
		View:   presentation.ViewState(st),
	}
}

// Create starts an empty session.
func (h *SessionHandler) Create(c *gin.Context) {
	sess := h.store.Create()
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": newSessionResponse(sess, sess.Controller.State())})
}

// Get returns the session. With ?wait=2s it blocks while a prediction is pending.
func (h *SessionHandler) Get(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	st, ok := h.waitFor(c, sess)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": newSessionResponse(sess, st)})
}

// UpdateFields stores raw values. Fields can be edited at any time, including
// while a prediction is pending; the pending request keeps its snapshot.
func (h *SessionHandler) UpdateFields(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	body, err := bindObject(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.Form.Apply(body); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": newSessionResponse(sess, sess.Controller.State())})
}

// Submit validates the form and starts a prediction. It answers 202 at once,
// or waits for the outcome with ?wait=.
func (h *SessionHandler) Submit(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	if _, err := sess.Controller.SubmitForm(c.Request.Context(), sess.Form); err != nil {
		respondError(c, err)
		return
	}
	st, ok := h.waitFor(c, sess)
	if !ok {
		return
	}

	status := http.StatusAccepted
	if st.Status != session.StatusPending {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"success": true, "data": newSessionResponse(sess, st)})
}

// Cancel abandons the pending prediction, if any.
func (h *SessionHandler) Cancel(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	cancelled := sess.Controller.Cancel()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"cancelled": cancelled,
		"data":      newSessionResponse(sess, sess.Controller.State()),
	})
}

// Delete closes the session.
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *SessionHandler) lookup(c *gin.Context) (*session.Session, bool) {
	sess, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return sess, true
}

// waitFor returns the current state, blocking up to ?wait= while pending.
// Running out of time is not an error: the pending state is returned.
func (h *SessionHandler) waitFor(c *gin.Context, sess *session.Session) (session.State, bool) {
	wait, err := parseWait(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return session.State{}, false
	}
	if wait == 0 {
		return sess.Controller.State(), true
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
	defer cancel()
	st, _ := sess.Controller.Wait(ctx)
	return st, true
}
