package ivr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sunlightlabs/capitolphone/internal/events"
	"github.com/sunlightlabs/capitolphone/internal/store"
)

// requestContextKey is the echo context key holding the RequestContext.
const requestContextKey = "capitolphone.request_context"

// ErrInvalidState is returned when a menu action needs a selection the
// call context does not hold, e.g. an info action before a legislator
// was chosen.
var ErrInvalidState = errors.New("ivr: call context missing required selection")

// RequestContext is the explicit per-webhook state handed to handlers:
// the request time and the in-flight call record. Handlers mutate the
// record's Context; the middleware persists it after they return.
type RequestContext struct {
	Now    time.Time
	Record *store.CallRecord
}

// requestContext returns the RequestContext bound by withCallContext.
func requestContext(c echo.Context) *RequestContext {
	rc, _ := c.Get(requestContextKey).(*RequestContext)
	return rc
}

// requireTwilioSignature rejects webhooks whose X-Twilio-Signature does
// not match the configured shared secret over the request URL and form
// fields. Runs before any call record is touched.
func (s *Server) requireTwilioSignature(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if err := req.ParseForm(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed form body")
		}

		params := make(map[string]string, len(req.PostForm))
		for key, values := range req.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		signature := req.Header.Get("X-Twilio-Signature")
		if !s.validator.Validate(s.requestURL(c), params, signature) {
			s.logger.Warn("rejected webhook with invalid signature",
				zap.String("uri", req.RequestURI),
			)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid twilio signature")
		}

		return next(c)
	}
}

// requestURL reconstructs the URL Twilio signed. The path and query are
// taken from the parsed URL rather than the raw request line, so clients
// sending absolute-form targets cannot double the host.
func (s *Server) requestURL(c echo.Context) string {
	uri := c.Request().URL.RequestURI()
	if s.config.PublicBaseURL != "" {
		return strings.TrimSuffix(s.config.PublicBaseURL, "/") + uri
	}
	return c.Scheme() + "://" + c.Request().Host + uri
}

// withCallContext loads or creates the call record for the webhook's
// CallSid, appends a status-history entry, binds a RequestContext for
// the handler, and persists the record unconditionally afterwards --
// even when the handler answered with a redirect.
func (s *Server) withCallContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		callSID := c.FormValue("CallSid")
		if callSID == "" {
			return echo.NewHTTPError(http.StatusNotFound, "missing CallSid")
		}

		ctx := c.Request().Context()
		now := s.now()

		record, created, err := s.loadCall(c, callSID, now)
		if err != nil {
			s.logger.Error("failed to load call record",
				zap.String("call_sid", callSID),
				zap.Error(err),
			)
			return echo.NewHTTPError(http.StatusInternalServerError, "call record unavailable")
		}

		if created {
			s.events.Publish(callSID, events.CallStarted, map[string]interface{}{
				"from": record.From,
				"to":   record.To,
			})
		}

		c.Set(requestContextKey, &RequestContext{Now: now, Record: record})

		handlerErr := next(c)

		if saveErr := s.store.SaveCall(ctx, record); saveErr != nil {
			s.logger.Error("failed to persist call record",
				zap.String("call_sid", callSID),
				zap.Error(saveErr),
			)
			if handlerErr == nil {
				handlerErr = echo.NewHTTPError(http.StatusInternalServerError, "failed to persist call")
			}
		}

		return handlerErr
	}
}

// loadCall fetches the record for a SID, creating it from the webhook's
// From/To/CallerName fields on first contact. Every invocation appends
// one status-history entry and overwrites the current status.
func (s *Server) loadCall(c echo.Context, callSID string, now time.Time) (*store.CallRecord, bool, error) {
	ctx := c.Request().Context()

	record, err := s.store.FindCall(ctx, callSID)
	created := false
	switch {
	case errors.Is(err, store.ErrNotFound):
		record = &store.CallRecord{
			CallSID:    callSID,
			From:       c.FormValue("From"),
			To:         c.FormValue("To"),
			CallerName: c.FormValue("CallerName"),
		}
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("find call: %w", err)
	}

	record.Requests = append(record.Requests, store.StatusEntry{
		Timestamp:  now,
		CallStatus: c.FormValue("CallStatus"),
	})
	record.CurrentStatus = c.FormValue("CallStatus")

	return record, created, nil
}
