package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenConn accepts headers but fails every body write.
type brokenConn struct {
	header      http.Header
	statusCalls []int
}

func (b *brokenConn) Header() http.Header {
	if b.header == nil {
		b.header = http.Header{}
	}
	return b.header
}

func (b *brokenConn) WriteHeader(code int) { b.statusCalls = append(b.statusCalls, code) }

func (b *brokenConn) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestRender_WriteFailureSendsHeaderOnce(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := NewHandler(nil, nil, nil, logger, Options{})
	w := &brokenConn{}

	h.render(w, httptest.NewRequest(http.MethodGet, "/login", nil), "login", pageData{Title: "Log in"})

	assert.Equal(t, []int{http.StatusOK}, w.statusCalls)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "login", hook.LastEntry().Data["view"])
}

func TestRender_UnknownViewIsInternalError(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewHandler(nil, nil, nil, logger, Options{})
	rec := httptest.NewRecorder()

	h.render(rec, httptest.NewRequest(http.MethodGet, "/", nil), "missing", pageData{})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgInternal, rec.Body.String())
}
