package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/models/config"
	"studio-desk/internal/occupancy"
	"studio-desk/internal/repository"
	"studio-desk/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePeople struct {
	service.PersonService
	created service.PersonInput
	getErr  error
}

func (f *fakePeople) Create(_ context.Context, in service.PersonInput) (*models.Person, error) {
	f.created = in
	return &models.Person{ID: "p1", Name: in.Name, Phone: in.Phone, Status: models.PersonActive}, nil
}

func (f *fakePeople) Get(_ context.Context, id string) (*models.Person, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Person{ID: id}, nil
}

func (f *fakePeople) List(context.Context) ([]models.Person, error) { return nil, nil }

type fakeAttendance struct {
	service.AttendanceService
	bookErr error
	marked  models.MarkStatus
	date    time.Time
}

func (f *fakeAttendance) BookOneTime(_ context.Context, _ string, date time.Time, _ string) error {
	f.date = date
	return f.bookErr
}

func (f *fakeAttendance) Mark(_ context.Context, _ string, date time.Time, _ string, status models.MarkStatus) error {
	f.date, f.marked = date, status
	return nil
}

func (f *fakeAttendance) BalanceByPhone(_ context.Context, phone string) (*models.Person, int, error) {
	return &models.Person{ID: "p1", Name: "Ana", Phone: phone}, 2, nil
}

type fakeOccupancy struct {
	service.OccupancyService
	date time.Time
}

func (f *fakeOccupancy) DailyOverview(_ context.Context, date time.Time) (*service.DailyOverview, error) {
	f.date = date
	return &service.DailyOverview{Date: occupancy.DateKey(date), Sessions: []occupancy.Snapshot{}}, nil
}

func (f *fakeOccupancy) Snapshot(_ context.Context, sessionID string, date time.Time) (*occupancy.Snapshot, error) {
	f.date = date
	return &occupancy.Snapshot{SessionID: sessionID, Date: occupancy.DateKey(date)}, nil
}

type fakeCatalog struct {
	service.CatalogService
	deleteErr error
}

func (f *fakeCatalog) DeleteSpace(context.Context, string) error { return f.deleteErr }

type fakeSessions struct {
	service.SessionService
	enrollErr error
}

func (f *fakeSessions) Enroll(context.Context, string, string) error { return f.enrollErr }

type testServer struct {
	people     *fakePeople
	sessions   *fakeSessions
	attendance *fakeAttendance
	occupancy  *fakeOccupancy
	catalog    *fakeCatalog
	router     http.Handler
	handler    *Handler
}

var moscow = time.FixedZone("MSK", 3*60*60)

func newTestServer() *testServer {
	ts := &testServer{
		people:     &fakePeople{},
		sessions:   &fakeSessions{},
		attendance: &fakeAttendance{},
		occupancy:  &fakeOccupancy{},
		catalog:    &fakeCatalog{},
	}
	ts.handler = NewHandler(ts.people, ts.sessions, ts.attendance, ts.occupancy, ts.catalog, nil, moscow, zap.NewNop())
	ts.handler.now = func() time.Time { return time.Date(2024, time.June, 30, 22, 30, 0, 0, time.UTC) }
	ts.router = NewRouter(ts.handler, config.HTTPConfig{}, zap.NewNop())
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	rec := newTestServer().do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreatePerson(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/people", `{"name":"Ana","phone":"555","join_date":"2024-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Ana", ts.people.created.Name)
	require.NotNil(t, ts.people.created.JoinDate)
	require.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, moscow), *ts.people.created.JoinDate)

	var person models.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &person))
	require.Equal(t, "p1", person.ID)
}

func TestCreatePerson_RejectsBadInput(t *testing.T) {
	ts := newTestServer()

	cases := map[string]string{
		"missing phone":  `{"name":"Ana"}`,
		"negative debt":  `{"name":"Ana","phone":"1","outstanding_payments":-1}`,
		"unknown status": `{"name":"Ana","phone":"1","status":"paused"}`,
		"bad join date":  `{"name":"Ana","phone":"1","join_date":"01.03.2024"}`,
		"unknown field":  `{"name":"Ana","phone":"1","nickname":"A"}`,
		"malformed json": `{"name":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/people", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("person p1: %w", repository.ErrNotFound), http.StatusNotFound},
		{service.Invalid("name", "is required"), http.StatusBadRequest},
		{occupancy.ErrDateInPast, http.StatusBadRequest},
		{occupancy.ErrWeekdayMismatch, http.StatusBadRequest},
		{occupancy.ErrNoRecoveryCredit, http.StatusConflict},
		{occupancy.ErrSessionFull, http.StatusConflict},
		{fmt.Errorf("wrap: %w", occupancy.ErrAlreadyMarked), http.StatusConflict},
		{fmt.Errorf("remove vacation v1: %w", service.ErrVacationHasBookings), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			ts := newTestServer()
			ts.attendance.bookErr = tc.err

			rec := ts.do(t, http.MethodPost, "/sessions/s1/attendance/2024-07-01/one-time", `{"person_id":"p1"}`)
			require.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusInternalServerError {
				require.Equal(t, "internal server error", decodeError(t, rec).Error)
			}
		})
	}
}

func TestGetPerson_NotFound(t *testing.T) {
	ts := newTestServer()
	ts.people.getErr = fmt.Errorf("person ghost: %w", repository.ErrNotFound)

	rec := ts.do(t, http.MethodGet, "/people/ghost", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPeople_EmptyArray(t *testing.T) {
	rec := newTestServer().do(t, http.MethodGet, "/people", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestMark(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPut, "/sessions/s1/attendance/2024-07-01/p1", `{"status":"justified"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, models.MarkJustified, ts.attendance.marked)
	require.Equal(t, "2024-07-01", occupancy.DateKey(ts.attendance.date))

	// one_time goes through the booking endpoint only
	rec = ts.do(t, http.MethodPut, "/sessions/s1/attendance/2024-07-01/p1", `{"status":"one_time"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/sessions/s1/attendance/July-1/p1", `{"status":"present"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "date", decodeError(t, rec).Field)
}

func TestDailyOverview_DefaultsToStudioToday(t *testing.T) {
	ts := newTestServer()

	// 22:30 UTC on June 30 is already July 1 in the studio timezone.
	rec := ts.do(t, http.MethodGet, "/occupancy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2024-07-01", occupancy.DateKey(ts.occupancy.date))
	require.Equal(t, moscow, ts.occupancy.date.Location())

	rec = ts.do(t, http.MethodGet, "/occupancy?date=2024-07-08", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"date":"2024-07-08"`)
}

func TestSessionOccupancy_BadDate(t *testing.T) {
	rec := newTestServer().do(t, http.MethodGet, "/sessions/s1/occupancy?date=2024-13-01", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnroll_Conflicts(t *testing.T) {
	ts := newTestServer()
	ts.sessions.enrollErr = fmt.Errorf("enroll: %w", occupancy.ErrSessionFull)

	rec := ts.do(t, http.MethodPost, "/sessions/s1/enrollments", `{"person_id":"p1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/sessions/s1/enrollments", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "PersonID", decodeError(t, rec).Field)
}

func TestDeleteSpace_InUse(t *testing.T) {
	ts := newTestServer()
	ts.catalog.deleteErr = fmt.Errorf("delete space s1: %w", repository.ErrInUse)

	rec := ts.do(t, http.MethodDelete, "/spaces/s1", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	ts.catalog.deleteErr = nil
	rec = ts.do(t, http.MethodDelete, "/spaces/s1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreditsByPhone(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/credits?phone=555", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"person_id":"p1","name":"Ana","balance":2}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/credits", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS_CredentialsOnlyForListedOrigins(t *testing.T) {
	h := newTestServer().handler
	origin := "https://desk.example.com"

	call := func(router http.Handler) http.Header {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return rec.Header()
	}

	open := call(NewRouter(h, config.HTTPConfig{}, zap.NewNop()))
	require.Empty(t, open.Get("Access-Control-Allow-Credentials"))

	listed := call(NewRouter(h, config.HTTPConfig{CORSOrigins: []string{origin}}, zap.NewNop()))
	require.Equal(t, origin, listed.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", listed.Get("Access-Control-Allow-Credentials"))
}
