package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teacher-schedule-api/internal/dto"
	"github.com/noah-isme/teacher-schedule-api/internal/middleware"
	"github.com/noah-isme/teacher-schedule-api/internal/models"
	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
)

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newContext(method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func withTeacher(c *gin.Context, teacherID string) {
	c.Params = append(c.Params, gin.Param{Key: middleware.TeacherParam, Value: teacherID})
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type authServiceStub struct {
	loginReq models.LoginRequest
	loginRes *models.LoginResponse
	err      error
}

func (s *authServiceStub) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	s.loginReq = req
	return s.loginRes, s.err
}

func (s *authServiceStub) Me(ctx context.Context, claims *models.JWTClaims) (*models.UserInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.UserInfo{ID: claims.UserID, Role: claims.Role, TeacherID: claims.TeacherID}, nil
}

func TestAuthHandlerLoginRejectsMalformedBody(t *testing.T) {
	h := NewAuthHandler(&authServiceStub{})
	c, w := newContext(http.MethodPost, "/auth/login", []byte(`{"email":`), nil)

	h.Login(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decode(t, w).Error.Code)
}

func TestAuthHandlerLoginPassesCredentials(t *testing.T) {
	svc := &authServiceStub{loginRes: &models.LoginResponse{AccessToken: "token"}}
	h := NewAuthHandler(svc)
	c, w := newContext(http.MethodPost, "/auth/login", []byte(`{"email":"t@school.id","password":"secret"}`), nil)

	h.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t@school.id", svc.loginReq.Email)
	assert.Contains(t, w.Body.String(), `"access_token":"token"`)
}

func TestAuthHandlerLoginMapsServiceError(t *testing.T) {
	h := NewAuthHandler(&authServiceStub{err: appErrors.ErrInvalidCredentials})
	c, w := newContext(http.MethodPost, "/auth/login", []byte(`{"email":"t@school.id","password":"bad"}`), nil)

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	h := NewAuthHandler(&authServiceStub{})
	c, w := newContext(http.MethodGet, "/auth/me", nil, nil)

	h.Me(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(&authServiceStub{})
	c, w := newContext(http.MethodGet, "/auth/me", nil, &models.JWTClaims{UserID: "u-1", Role: models.RoleTeacher, TeacherID: "teacher-1"})

	h.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"teacher_id":"teacher-1"`)
}

type timeSlotServiceStub struct {
	institution string
}

func (s *timeSlotServiceStub) List(ctx context.Context, institutionID string) ([]models.TimeSlot, error) {
	s.institution = institutionID
	return []models.TimeSlot{{ID: "h1", InstitutionID: institutionID, Label: "1st"}}, nil
}

func TestTimeSlotHandlerResolvesInstitution(t *testing.T) {
	cases := []struct {
		name   string
		target string
		claims *models.JWTClaims
		want   string
	}{
		{name: "query wins", target: "/time-slots?institution_id=inst-q", claims: &models.JWTClaims{InstitutionID: "inst-c"}, want: "inst-q"},
		{name: "claims", target: "/time-slots", claims: &models.JWTClaims{InstitutionID: "inst-c"}, want: "inst-c"},
		{name: "default", target: "/time-slots", claims: &models.JWTClaims{}, want: "inst-default"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &timeSlotServiceStub{}
			h := NewTimeSlotHandler(svc, "inst-default")
			c, w := newContext(http.MethodGet, tc.target, nil, tc.claims)

			h.List(c)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.want, svc.institution)
			assert.EqualValues(t, 1, decode(t, w).Meta["total"])
		})
	}
}

type catalogServiceStub struct {
	created    dto.CreateActivityRequest
	archiveErr error
	archived   string
}

func (s *catalogServiceStub) ListAssignments(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	return []models.TeacherAssignment{{ID: "asg-a", TeacherID: teacherID}}, nil
}

func (s *catalogServiceStub) ListActivities(ctx context.Context, teacherID string) ([]models.TeacherActivity, error) {
	return nil, nil
}

func (s *catalogServiceStub) CreateActivity(ctx context.Context, teacherID string, req dto.CreateActivityRequest) (*models.TeacherActivity, error) {
	s.created = req
	return &models.TeacherActivity{ID: "act-1", TeacherID: teacherID, Name: req.Name}, nil
}

func (s *catalogServiceStub) ArchiveActivity(ctx context.Context, teacherID, activityID string) error {
	s.archived = activityID
	return s.archiveErr
}

func TestCatalogHandlerCreateActivity(t *testing.T) {
	svc := &catalogServiceStub{}
	h := NewCatalogHandler(svc)
	c, w := newContext(http.MethodPost, "/teachers/teacher-1/activities", []byte(`{"name":"Tutoring"}`), nil)
	withTeacher(c, "teacher-1")

	h.CreateActivity(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Tutoring", svc.created.Name)
	assert.Contains(t, w.Body.String(), `"teacher_id":"teacher-1"`)
}

func TestCatalogHandlerArchiveActivity(t *testing.T) {
	svc := &catalogServiceStub{}
	h := NewCatalogHandler(svc)
	c, _ := newContext(http.MethodDelete, "/teachers/teacher-1/activities/act-1", nil, nil)
	withTeacher(c, "teacher-1")
	c.Params = append(c.Params, gin.Param{Key: "activityId", Value: "act-1"})

	h.ArchiveActivity(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "act-1", svc.archived)
}

func TestCatalogHandlerArchiveMissingActivity(t *testing.T) {
	h := NewCatalogHandler(&catalogServiceStub{archiveErr: appErrors.ErrNotFound})
	c, w := newContext(http.MethodDelete, "/teachers/teacher-1/activities/nope", nil, nil)
	withTeacher(c, "teacher-1")

	h.ArchiveActivity(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

type editorStub struct {
	teacherID string
	setReq    dto.SetCellRequest
	clearReq  dto.ClearCellRequest
	saveErr   error
}

func (s *editorStub) View(ctx context.Context, teacherID string) (*dto.ScheduleView, error) {
	s.teacherID = teacherID
	return &dto.ScheduleView{TeacherID: teacherID, Mode: "TOGGLE"}, nil
}

func (s *editorStub) SetCell(ctx context.Context, teacherID string, req dto.SetCellRequest) (*dto.CellMutationResult, error) {
	s.teacherID, s.setReq = teacherID, req
	return &dto.CellMutationResult{Outcome: "SET", Mode: "TOGGLE", Dirty: true}, nil
}

func (s *editorStub) ClearCell(ctx context.Context, teacherID string, req dto.ClearCellRequest) (*dto.CellMutationResult, error) {
	s.clearReq = req
	return &dto.CellMutationResult{Outcome: "CLEARED", Mode: "TOGGLE"}, nil
}

func (s *editorStub) Save(ctx context.Context, teacherID string) (*dto.SaveScheduleResult, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	return &dto.SaveScheduleResult{TeacherID: teacherID, Saved: true}, nil
}

func (s *editorStub) Discard(ctx context.Context, teacherID string) (*dto.ScheduleView, error) {
	return &dto.ScheduleView{TeacherID: teacherID}, nil
}

type exporterStub struct {
	format string
}

func (s *exporterStub) Export(ctx context.Context, teacherID, format string) (*dto.ExportFile, error) {
	s.format = format
	if format == "doc" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	return &dto.ExportFile{Filename: "schedule-teacher-1.csv", ContentType: "text/csv", Payload: []byte("Hour,Monday\n")}, nil
}

func TestScheduleHandlerSetCellForwardsRequest(t *testing.T) {
	editor := &editorStub{}
	h := NewScheduleHandler(editor, &exporterStub{})
	body := []byte(`{"day":"monday","time_slot_id":"h1","selection":{"kind":"ASSIGNMENT","id":"asg-a"}}`)
	c, w := newContext(http.MethodPut, "/teachers/teacher-1/schedule/cells?institution_id=inst-2", body, &models.JWTClaims{TeacherID: "teacher-1", InstitutionID: "inst-1"})
	withTeacher(c, "teacher-1")

	h.SetCell(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-1", editor.teacherID)
	require.NotNil(t, editor.setReq.Selection)
	assert.Equal(t, "asg-a", editor.setReq.Selection.ID)
	assert.Contains(t, w.Body.String(), `"outcome":"SET"`)
}

func TestScheduleHandlerSetCellRejectsMalformedBody(t *testing.T) {
	h := NewScheduleHandler(&editorStub{}, &exporterStub{})
	c, w := newContext(http.MethodPut, "/teachers/teacher-1/schedule/cells", []byte(`[]`), nil)
	withTeacher(c, "teacher-1")

	h.SetCell(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerClearCellBindsQuery(t *testing.T) {
	editor := &editorStub{}
	h := NewScheduleHandler(editor, &exporterStub{})
	c, w := newContext(http.MethodDelete, "/teachers/teacher-1/schedule/cells?day=TUESDAY&time_slot_id=h2", nil, nil)
	withTeacher(c, "teacher-1")

	h.ClearCell(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ClearCellRequest{Day: "TUESDAY", TimeSlotID: "h2"}, editor.clearReq)
}

func TestScheduleHandlerSaveFailureIsRetryable(t *testing.T) {
	editor := &editorStub{saveErr: appErrors.Storage(errors.New("connection reset"), "failed to save schedule")}
	h := NewScheduleHandler(editor, &exporterStub{})
	c, w := newContext(http.MethodPost, "/teachers/teacher-1/schedule/save", nil, nil)
	withTeacher(c, "teacher-1")

	h.Save(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "STORAGE_UNAVAILABLE", env.Error.Code)
	assert.True(t, env.Error.Retryable)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestScheduleHandlerExportStreamsFile(t *testing.T) {
	exporter := &exporterStub{}
	h := NewScheduleHandler(&editorStub{}, exporter)
	c, w := newContext(http.MethodGet, "/teachers/teacher-1/schedule/export?format=csv", nil, nil)
	withTeacher(c, "teacher-1")

	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Equal(t, `attachment; filename="schedule-teacher-1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Hour,Monday\n", w.Body.String())
}

func TestScheduleHandlerExportUnknownFormat(t *testing.T) {
	h := NewScheduleHandler(&editorStub{}, &exporterStub{})
	c, w := newContext(http.MethodGet, "/teachers/teacher-1/schedule/export?format=doc", nil, nil)
	withTeacher(c, "teacher-1")

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsHandlerReadyReportsFailingDependency(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return nil }),
		"redis":    PingFunc(func(context.Context) error { return errors.New("refused") }),
	})
	c, w := newContext(http.MethodGet, "/ready", nil, nil)

	h.Ready(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "refused", body.Checks["redis"])
}

func TestMetricsHandlerPrometheusWithoutService(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	c, _ := newContext(http.MethodGet, "/metrics", nil, nil)

	h.Prometheus(c)

	assert.Equal(t, http.StatusServiceUnavailable, c.Writer.Status())
}
