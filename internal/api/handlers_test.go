package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"todolist/internal/model"
	"todolist/internal/service"
)

type stubTasks struct {
	createResp    service.Response[*model.Task]
	created       []service.CreateTaskInput
	endResp       service.Response[bool]
	ended         []uint
	listResp      service.Response[[]service.TaskView]
	filters       []service.TaskFilter
	completedResp service.Response[[]service.CompletedTaskView]
	reportResp    service.Response[[]service.TaskReportRow]
	now           time.Time
}

func (s *stubTasks) Create(_ context.Context, input service.CreateTaskInput) service.Response[*model.Task] {
	s.created = append(s.created, input)
	return s.createResp
}

func (s *stubTasks) EndTask(_ context.Context, id uint) service.Response[bool] {
	s.ended = append(s.ended, id)
	return s.endResp
}

func (s *stubTasks) GetTasks(_ context.Context, filter service.TaskFilter) service.Response[[]service.TaskView] {
	s.filters = append(s.filters, filter)
	return s.listResp
}

func (s *stubTasks) GetCompletedTasks(context.Context) service.Response[[]service.CompletedTaskView] {
	return s.completedResp
}

func (s *stubTasks) CalculateCompletedTask(context.Context) service.Response[[]service.TaskReportRow] {
	return s.reportResp
}

func (s *stubTasks) Now() time.Time { return s.now }

func newTestServer(t *testing.T, tasks TaskService, ping Pinger) (*echo.Echo, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	return NewServer(tasks, ping, logger), hook
}

func serve(e *echo.Echo, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func okCreate() service.Response[*model.Task] {
	return service.Response[*model.Task]{StatusCode: service.StatusOK, Description: "Задача добавлена", Data: &model.Task{ID: 1}}
}

func TestCreateTask(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        service.CreateTaskInput
	}{
		{
			name:        "json with priority name",
			contentType: echo.MIMEApplicationJSON,
			body:        `{"name":"Buy milk","description":"Need milk","priority":"High"}`,
			want:        service.CreateTaskInput{Name: "Buy milk", Description: "Need milk", Priority: model.PriorityHigh},
		},
		{
			name:        "json with ordinal",
			contentType: echo.MIMEApplicationJSON,
			body:        `{"name":"Buy milk","description":"Need milk","priority":1}`,
			want:        service.CreateTaskInput{Name: "Buy milk", Description: "Need milk", Priority: model.PriorityMedium},
		},
		{
			name:        "json without priority",
			contentType: echo.MIMEApplicationJSON,
			body:        `{"name":"Buy milk","description":"Need milk"}`,
			want:        service.CreateTaskInput{Name: "Buy milk", Description: "Need milk", Priority: model.PriorityLow},
		},
		{
			name:        "form",
			contentType: echo.MIMEApplicationForm,
			body:        url.Values{"name": {"Buy milk"}, "description": {"Need milk"}, "priority": {"2"}}.Encode(),
			want:        service.CreateTaskInput{Name: "Buy milk", Description: "Need milk", Priority: model.PriorityHigh},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &stubTasks{createResp: okCreate()}
			e, _ := newTestServer(t, tasks, nil)

			rec := serve(e, http.MethodPost, "/Task/Create", tt.contentType, tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"description":"Задача добавлена"}`, rec.Body.String())
			assert.Equal(t, []service.CreateTaskInput{tt.want}, tasks.created)
		})
	}
}

func TestCreateTaskRejected(t *testing.T) {
	t.Run("service outcome", func(t *testing.T) {
		tasks := &stubTasks{createResp: service.Response[*model.Task]{
			StatusCode:  service.StatusTaskAlreadyExists,
			Description: "Задача с таким именем уже существует",
		}}
		e, _ := newTestServer(t, tasks, nil)

		rec := serve(e, http.MethodPost, "/Task/Create", echo.MIMEApplicationJSON, `{"name":"Buy milk","description":"Need milk"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"description":"Задача с таким именем уже существует"}`, rec.Body.String())
	})

	t.Run("unknown priority", func(t *testing.T) {
		tasks := &stubTasks{createResp: okCreate()}
		e, _ := newTestServer(t, tasks, nil)

		rec := serve(e, http.MethodPost, "/Task/Create", echo.MIMEApplicationJSON, `{"name":"a","description":"b","priority":"Urgent"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"description":"Неизвестный приоритет"}`, rec.Body.String())
		assert.Empty(t, tasks.created)
	})

	t.Run("malformed body", func(t *testing.T) {
		tasks := &stubTasks{createResp: okCreate()}
		e, _ := newTestServer(t, tasks, nil)

		rec := serve(e, http.MethodPost, "/Task/Create", echo.MIMEApplicationJSON, `{"name":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"description":"invalid body"}`, rec.Body.String())
		assert.Empty(t, tasks.created)
	})

	t.Run("wrong method", func(t *testing.T) {
		e, _ := newTestServer(t, &stubTasks{}, nil)

		rec := serve(e, http.MethodGet, "/Task/Create", "", "")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestEndTask(t *testing.T) {
	ok := service.Response[bool]{StatusCode: service.StatusOK, Description: "Задача выполнена", Data: true}
	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
	}{
		{name: "json number", target: "/Task/EndTask", contentType: echo.MIMEApplicationJSON, body: `{"id":7}`},
		{name: "json string", target: "/Task/EndTask", contentType: echo.MIMEApplicationJSON, body: `{"id":"7"}`},
		{name: "form", target: "/Task/EndTask", contentType: echo.MIMEApplicationForm, body: "id=7"},
		{name: "query", target: "/Task/EndTask?id=7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &stubTasks{endResp: ok}
			e, _ := newTestServer(t, tasks, nil)

			rec := serve(e, http.MethodPost, tt.target, tt.contentType, tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"description":"Задача выполнена"}`, rec.Body.String())
			assert.Equal(t, []uint{7}, tasks.ended)
		})
	}
}

func TestEndTaskRejected(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		tasks := &stubTasks{endResp: service.Response[bool]{StatusCode: service.StatusTaskNotFound, Description: "Задача не найдена"}}
		e, _ := newTestServer(t, tasks, nil)

		rec := serve(e, http.MethodPost, "/Task/EndTask", echo.MIMEApplicationJSON, `{"id":99}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"description":"Задача не найдена"}`, rec.Body.String())
	})

	t.Run("bad id", func(t *testing.T) {
		tasks := &stubTasks{}
		e, _ := newTestServer(t, tasks, nil)

		rec := serve(e, http.MethodPost, "/Task/EndTask", echo.MIMEApplicationJSON, `{"id":"seven"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"description":"Некорректный идентификатор задачи"}`, rec.Body.String())
		assert.Empty(t, tasks.ended)
	})
}

func TestGetTasks(t *testing.T) {
	view := service.TaskView{ID: 1, Name: "Buy milk", Description: "Need milk", IsDone: "Не готова", Priority: "Низкий", Created: "15 октября 2026 г."}
	tasks := &stubTasks{listResp: service.Response[[]service.TaskView]{StatusCode: service.StatusOK, Data: []service.TaskView{view}}}
	e, _ := newTestServer(t, tasks, nil)

	rec := serve(e, http.MethodPost, "/Task/TaskHandler", echo.MIMEApplicationJSON, `{"name":"Buy milk","priority":"Low"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[{"id":1,"name":"Buy milk","description":"Need milk","isDone":"Не готова","priority":"Низкий","created":"15 октября 2026 г."}]}`, rec.Body.String())
	require.Len(t, tasks.filters, 1)
	assert.Equal(t, "Buy milk", tasks.filters[0].Name)
	require.NotNil(t, tasks.filters[0].Priority)
	assert.Equal(t, model.PriorityLow, *tasks.filters[0].Priority)

	rec = serve(e, http.MethodPost, "/Task/TaskHandler", echo.MIMEApplicationForm, "name=")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, tasks.filters, 2)
	assert.Equal(t, service.TaskFilter{}, tasks.filters[1])
}

func TestReadEndpointsReportFailures(t *testing.T) {
	failed := "sql: database is closed"
	tasks := &stubTasks{
		listResp:      service.Response[[]service.TaskView]{StatusCode: service.StatusInternalServerError, Description: failed},
		completedResp: service.Response[[]service.CompletedTaskView]{StatusCode: service.StatusInternalServerError, Description: failed},
		reportResp:    service.Response[[]service.TaskReportRow]{StatusCode: service.StatusInternalServerError, Description: failed},
	}
	e, _ := newTestServer(t, tasks, nil)

	for _, target := range []string{"/Task/TaskHandler", "/Task/GetCompletedTasks", "/Task/CalculateCompletedTask"} {
		t.Run(target, func(t *testing.T) {
			rec := serve(e, http.MethodPost, target, "", "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"description":"sql: database is closed"}`, rec.Body.String())
		})
	}
}

func TestGetCompletedTasks(t *testing.T) {
	tasks := &stubTasks{completedResp: service.Response[[]service.CompletedTaskView]{
		StatusCode: service.StatusOK,
		Data:       []service.CompletedTaskView{{ID: 3, Name: "Buy milk", Description: "Need "}},
	}}
	e, _ := newTestServer(t, tasks, nil)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := serve(e, method, "/Task/GetCompletedTasks", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":[{"id":3,"name":"Buy milk","description":"Need "}]}`, rec.Body.String())
	}
}

func TestCalculateCompletedTask(t *testing.T) {
	rows := []service.TaskReportRow{
		{ID: 1, Name: "a", Description: "first", IsDone: "Done", Priority: "Low", Created: "10/15/2026 14:03:05"},
		{ID: 2, Name: "b", Description: "secon", IsDone: "Not Done", Priority: "High", Created: "10/15/2026 15:00:00"},
	}
	tasks := &stubTasks{
		reportResp: service.Response[[]service.TaskReportRow]{StatusCode: service.StatusOK, Data: rows},
		now:        time.Date(2026, 10, 15, 23, 55, 0, 0, time.UTC),
	}
	e, _ := newTestServer(t, tasks, nil)

	rec := serve(e, http.MethodPost, "/Task/CalculateCompletedTask", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	disposition := rec.Header().Get(echo.HeaderContentDisposition)
	assert.True(t, strings.HasPrefix(disposition, "attachment;"), disposition)
	assert.Contains(t, disposition, "filename*=UTF-8''"+url.PathEscape("Статистика за 15 октября 2026 г..csv"))

	lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, len(rows)+1)
	assert.Equal(t, "Id,Name,Description,IsDone,Priority,Created", lines[0])
	assert.Equal(t, "1,a,first,Done,Low,10/15/2026 14:03:05", lines[1])
}

func TestHealthz(t *testing.T) {
	e, _ := newTestServer(t, &stubTasks{}, func(context.Context) error { return nil })
	rec := serve(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	e, _ = newTestServer(t, &stubTasks{}, func(context.Context) error { return errors.New("closed") })
	rec = serve(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestObservation(t *testing.T) {
	recorder := setupTestTracer(t)
	tasks := &stubTasks{listResp: service.Response[[]service.TaskView]{
		StatusCode: service.StatusOK,
		Data:       []service.TaskView{{ID: 1}, {ID: 2}},
	}}
	e, hook := newTestServer(t, tasks, nil)

	rec := serve(e, http.MethodPost, "/Task/TaskHandler", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "/Task/TaskHandler", spans[0].Name())
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "/Task/TaskHandler", attrs["http.route"].AsString())
	assert.Equal(t, int64(http.StatusOK), attrs["http.status_code"].AsInt64())
	assert.Equal(t, int64(2), attrs["todolist.results"].AsInt64())
	assert.Equal(t, "OK", attrs["todolist.outcome"].AsString())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.InfoLevel, entry.Level)
	assert.Equal(t, requestEventName, entry.Message)
	assert.Equal(t, "/Task/TaskHandler", entry.Data["route"])
	assert.Equal(t, 2, entry.Data["results"])
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), entry.Data["request_id"])
	assert.Len(t, entry.Data["request_id"], 36)
}

func TestRequestObservationMarksErrors(t *testing.T) {
	recorder := setupTestTracer(t)
	e, hook := newTestServer(t, &stubTasks{}, nil)

	rec := serve(e, http.MethodPost, "/Task/Create", echo.MIMEApplicationJSON, `{"name":"a","description":"b","priority":"Urgent"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "priority", spans[0].Status().Description)
	assert.Equal(t, "priority", hook.LastEntry().Data["error_stage"])
}
