package ivr

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRequestURL(t *testing.T) {
	e := echo.New()

	newContext := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodPost, target, nil)
		return e.NewContext(req, httptest.NewRecorder())
	}

	t.Run("derived from request host", func(t *testing.T) {
		s := &Server{config: &Config{}}

		c := newContext("http://phone.test/voice/zipcode?x=1")

		assert.Equal(t, "http://phone.test/voice/zipcode?x=1", s.requestURL(c))
	})

	t.Run("absolute-form target does not double the host", func(t *testing.T) {
		s := &Server{config: &Config{}}

		c := newContext("http://phone.test/voice")
		// Absolute-form clients carry the full URL in the request line.
		c.Request().RequestURI = "http://phone.test/voice"

		assert.Equal(t, "http://phone.test/voice", s.requestURL(c))
	})

	t.Run("public base URL overrides the request host", func(t *testing.T) {
		s := &Server{config: &Config{PublicBaseURL: "https://phone.example.org/"}}

		c := newContext("http://internal:8080/voice/reps")

		assert.Equal(t, "https://phone.example.org/voice/reps", s.requestURL(c))
	})
}
