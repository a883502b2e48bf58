package attendancehandler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpay/internal/domain/auth"
	"hrpay/internal/transport/http/middleware"
)

const testSecret = "test-secret"

func newTestRouter() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(testSecret))
	router.Route("/api/v1", NewHandler(auth.StaticPermissions{}).RegisterRoutes)
	return router
}

func post(t *testing.T, path, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	if role != "" {
		tok, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "u-1", RoleName: role}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success)
	return env.Data
}

func TestSummary(t *testing.T) {
	body := `{"records": [
	  {"date": "2025-03-03", "status": "present", "scheduledIn": "09:00", "scheduledOut": "17:00", "actualIn": "09:10", "actualOut": "18:00"},
	  {"date": "2025-03-04", "status": "PRESENT", "scheduledIn": "09:00", "scheduledOut": "17:00", "actualIn": "08:55", "actualOut": "16:30"},
	  {"date": "2025-03-05", "status": "ABSENT"},
	  {"date": "2025-03-06", "status": "LEAVE"},
	  {"date": "2025-03-08", "status": "WEEKEND", "actualIn": "10:00", "actualOut": "12:30"}
	]}`
	rec := post(t, "/api/v1/attendance/summary", auth.RoleEmployee, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := decodeData[SummaryResponse](t, rec)
	assert.Equal(t, 5, summary.TotalDays)
	assert.Equal(t, 2, summary.PresentDays)
	assert.Equal(t, 4.0, summary.PaidDays)
	assert.Equal(t, 18.91, summary.WorkHours)
	assert.Equal(t, 3.33, summary.OvertimeHours)
	assert.Equal(t, 10, summary.LateMinutes)
	assert.Equal(t, 30, summary.EarlyLeaveMinutes)
}

func TestSummaryValidation(t *testing.T) {
	body := `{"records": [{"date": "03/03/2025", "status": "SICK", "actualIn": "9am"}]}`
	rec := post(t, "/api/v1/attendance/summary", auth.RoleEmployee, body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	for _, field := range []string{"records[0].date", "records[0].status", "records[0].actualIn"} {
		assert.Contains(t, rec.Body.String(), `"field":"`+field+`"`)
	}
}

func TestShiftHours(t *testing.T) {
	cases := []struct {
		name string
		body string
		want HoursResponse
	}{
		{
			name: "day shift with break",
			body: `{"startTime": "09:00", "endTime": "18:00", "breakStart": "13:00", "breakEnd": "14:00"}`,
			want: HoursResponse{ShiftHours: 9, BreakHours: 1, NetHours: 8},
		},
		{
			name: "overnight",
			body: `{"startTime": "22:00", "endTime": "06:00"}`,
			want: HoursResponse{ShiftHours: 8, NetHours: 8},
		},
		{
			name: "partial hours",
			body: `{"startTime": "09:00", "endTime": "09:20"}`,
			want: HoursResponse{ShiftHours: 0.33, NetHours: 0.33},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, "/api/v1/shifts/hours", auth.RoleManager, tc.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tc.want, decodeData[HoursResponse](t, rec))
		})
	}
}

func TestShiftHoursRejects(t *testing.T) {
	cases := map[string]string{
		"bad clock":      `{"startTime": "25:00", "endTime": "06:00"}`,
		"half break":     `{"startTime": "09:00", "endTime": "17:00", "breakStart": "12:00"}`,
		"break too long": `{"startTime": "09:00", "endTime": "10:00", "breakStart": "10:00", "breakEnd": "13:00"}`,
	}
	for name, body := range cases {
		rec := post(t, "/api/v1/shifts/hours", auth.RoleManager, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestAttendanceRequiresAuth(t *testing.T) {
	rec := post(t, "/api/v1/shifts/hours", "", `{"startTime": "09:00", "endTime": "17:00"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(t, "/api/v1/shifts/hours", auth.RoleSystemAdmin, `{"startTime": "09:00", "endTime": "17:00"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
