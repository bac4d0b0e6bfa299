package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/perennial/pkg/adapters/gateway"
	"github.com/aretw0/perennial/pkg/adapters/httpapi"
	"github.com/aretw0/perennial/pkg/adapters/memory"
	"github.com/aretw0/perennial/pkg/booking"
)

func newTestHandler(t *testing.T) (http.Handler, *gateway.Gateway) {
	t.Helper()
	gw := gateway.New()
	store := booking.NewStore(memory.New())
	r := booking.NewRunner(store, gw, booking.NewSystemWithDefaultSchedule)
	handler, err := httpapi.NewHandler(r)
	require.NoError(t, err)
	return handler, gw
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeRecord(t *testing.T, w *httptest.ResponseRecorder) httpapi.RequestRecord {
	t.Helper()
	var record httpapi.RequestRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	return record
}

func exactBody(day, clock string) map[string]any {
	return map[string]any{
		"kind":     "exact",
		"customer": map[string]any{"id": 1, "name": "Ada", "email": "ada@example.com"},
		"service":  "maintenance",
		"slot":     map[string]any{"day": day, "time": clock},
	}
}

func TestCreateExactRequest(t *testing.T) {
	handler, gw := newTestHandler(t)

	w := doJSON(t, handler, http.MethodPost, "/calendars/crew-a/requests", exactBody("monday", "09:00"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	record := decodeRecord(t, w)
	assert.Equal(t, uint64(1), record.RequestID)
	assert.Equal(t, "awaiting_confirmation", record.Status)
	assert.Equal(t, "monday", record.Slot.Day)
	assert.Equal(t, "09:00", record.Slot.Time)
	assert.Equal(t, "maintenance", record.Service)
	require.NotNil(t, record.Customer.Email)
	assert.Equal(t, "ada@example.com", string(*record.Customer.Email))

	assert.Equal(t, []booking.RequestID{1}, gw.Outstanding())
	hold, ok := gw.HoldFor(1)
	require.True(t, ok)
	assert.Equal(t, int64(7500), hold.AmountCents)
}

func TestCreateAutoRequest(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := map[string]any{
		"kind":     "auto",
		"customer": map[string]any{"id": 2, "name": "Brin"},
		"service":  "consultation",
		"days":     []string{"tuesday"},
		"windows":  []string{"09:00-12:00"},
	}
	w := doJSON(t, handler, http.MethodPost, "/calendars/crew-a/requests", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	record := decodeRecord(t, w)
	assert.Equal(t, "tuesday", record.Slot.Day)
	assert.Equal(t, "09:00", record.Slot.Time)
	assert.Nil(t, record.Customer.Email)
}

func TestAutoRequestWithoutMatchConflicts(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := map[string]any{
		"kind":     "auto",
		"customer": map[string]any{"id": 3, "name": "Cody"},
		"service":  "landscaping",
		"days":     []string{"saturday"},
	}
	w := doJSON(t, handler, http.MethodPost, "/calendars/crew-a/requests", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "no slot")
}

func TestResolvePaymentConfirmsBooking(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := doJSON(t, handler, http.MethodPost, "/calendars/crew-a/requests", exactBody("monday", "09:00"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, handler, http.MethodPost, "/calendars/crew-a/payments/1",
		map[string]any{"kind": "success", "amount_cents": 7500})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", decodeRecord(t, w).Status)

	w = doJSON(t, handler, http.MethodGet, "/calendars/crew-a", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cal httpapi.Calendar
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cal))
	assert.Equal(t, "crew-a", cal.CalendarID)
	assert.Equal(t, uint64(2), cal.NextID)
	require.Len(t, cal.Bookings, 1)
	assert.Equal(t, int64(7500), cal.Bookings[0].AmountPaidCents)
	require.Len(t, cal.Requests, 1)
	assert.Equal(t, "confirmed", cal.Requests[0].Status)
	assert.Equal(t, []string{"09:00-12:00", "14:00-17:00"}, cal.Schedule["monday"])
}

func TestSecondRequestForTakenSlotConflicts(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := doJSON(t, handler, http.MethodPost, "/calendars/crew-a/requests", exactBody("monday", "09:00"))
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, handler, http.MethodPost, "/calendars/crew-a/payments/1",
		map[string]any{"kind": "success", "amount_cents": 7500})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, handler, http.MethodPost, "/calendars/crew-a/requests", exactBody("monday", "09:00"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "not available")
}

func TestResolveUnknownRequestLeavesNoSession(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := doJSON(t, handler, http.MethodPost, "/calendars/ghost/payments/99",
		map[string]any{"kind": "success", "amount_cents": 100})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The failed transition must not have checkpointed a fresh session.
	w = doJSON(t, handler, http.MethodGet, "/calendars/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFindSlotQuery(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := doJSON(t, handler, http.MethodPost, "/calendars/crew-a/requests", exactBody("monday", "09:00"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, handler, http.MethodGet,
		"/calendars/crew-a/slots?service=landscaping&days=friday&windows=10:00-15:00", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var query httpapi.SlotQuery
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &query))
	assert.True(t, query.Found)
	require.NotNil(t, query.Slot)
	assert.Equal(t, "friday", query.Slot.Day)
	assert.Equal(t, "10:00", query.Slot.Time)
}

func TestFindSlotUnknownCalendar(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := doJSON(t, handler, http.MethodGet, "/calendars/ghost/slots?service=consultation", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidationRejectsBadPayloads(t *testing.T) {
	handler, _ := newTestHandler(t)

	t.Run("unknown request kind", func(t *testing.T) {
		body := exactBody("monday", "09:00")
		body["kind"] = "teleport"
		w := doJSON(t, handler, http.MethodPost, "/calendars/crew-a/requests", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "kind")
	})

	t.Run("missing service query parameter", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/calendars/crew-a/slots", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "service")
	})

	t.Run("non numeric request id", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodPost, "/calendars/crew-a/payments/abc",
			map[string]any{"kind": "success"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		body := exactBody("monday", "09:00")
		body["customer"] = map[string]any{"id": 1, "name": "Ada", "email": "not-an-email"}
		w := doJSON(t, handler, http.MethodPost, "/calendars/crew-a/requests", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListCalendars(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := doJSON(t, handler, http.MethodGet, "/calendars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list httpapi.CalendarList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Calendars)

	for _, id := range []string{"crew-b", "crew-a"} {
		w = doJSON(t, handler, http.MethodPost, "/calendars/"+id+"/requests", exactBody("monday", "09:00"))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w = doJSON(t, handler, http.MethodGet, "/calendars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []string{"crew-a", "crew-b"}, list.Calendars)
}

func TestServiceEndpoints(t *testing.T) {
	handler, _ := newTestHandler(t)

	t.Run("healthz", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("info", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/info", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var info map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
		assert.Equal(t, "perennial-http", info["app"])
		assert.Equal(t, "0.3.0", info["api_version"])
	})

	t.Run("openapi document", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/openapi.yaml", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "openapi: 3.0")
	})

	t.Run("swagger ui", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/swagger", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "swagger-ui")
	})

	t.Run("request id header", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/healthz", nil)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	})
}

func TestCORSPreflight(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/calendars/crew-a/requests", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
