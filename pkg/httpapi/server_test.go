package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/caregiver-rota/pkg/core/calendar"
	"github.com/jakechorley/caregiver-rota/pkg/core/model"
	"github.com/jakechorley/caregiver-rota/pkg/core/rooms"
	"github.com/jakechorley/caregiver-rota/pkg/core/scheduler"
	"github.com/jakechorley/caregiver-rota/pkg/core/services"
	"github.com/jakechorley/caregiver-rota/pkg/core/workday"
	"github.com/jakechorley/caregiver-rota/pkg/db"
)

// mockDispatcher implements Dispatcher with a completion channel the test controls
type mockDispatcher struct {
	done  chan scheduler.Completion
	dates []time.Time
}

func (m *mockDispatcher) Dispatch(ctx context.Context, date time.Time) <-chan scheduler.Completion {
	m.dates = append(m.dates, date)
	return m.done
}

func testLayout(t *testing.T) services.DayLayout {
	t.Helper()
	catalog, err := rooms.New(2)
	require.NoError(t, err)
	return services.DayLayout{
		Calendar: calendar.New(time.UTC, time.Sunday),
		Policy:   workday.Policy{Default: workday.Hours{Start: 9, End: 11}},
		Rooms:    catalog,
	}
}

func newStore() *db.MemoryDB {
	return db.NewMemoryDB(
		model.Caregiver{ID: "amy", FirstName: "Amy", LastName: "Pond"},
		model.Caregiver{ID: "bob", FirstName: "Bob"},
	)
}

func do(t *testing.T, handler http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAutoFitEndToEnd(t *testing.T) {
	store := newStore()
	layout := testLayout(t)
	s, err := scheduler.New(scheduler.Config{Rooms: layout.Rooms, Policy: layout.Policy, Calendar: layout.Calendar}, store, store, zap.NewNop())
	require.NoError(t, err)

	server := New(context.Background(), s, store, layout, zap.NewNop())
	handler := server.Handler()

	rec := do(t, handler, http.MethodPost, "/api/v1/autofit/2024-03-06")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	assert.Equal(t, "2024-03-06", started.Date)
	assert.True(t, started.Running)

	server.Wait()

	rec = do(t, handler, http.MethodGet, "/api/v1/autofit")
	require.Equal(t, http.StatusOK, rec.Code)
	var finished RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &finished))
	assert.False(t, finished.Running)
	assert.Equal(t, 4, finished.Committed)
	assert.Empty(t, finished.Error)

	rec = do(t, handler, http.MethodGet, "/api/v1/days/2024-03-06")
	require.Equal(t, http.StatusOK, rec.Code)
	var view services.DayView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Open)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "Amy Pond", view.Rows[0].Cells[0].CaregiverName)
	assert.Equal(t, 4, view.FilledSlots())
}

func TestStartAutoFit_Conflict(t *testing.T) {
	dispatcher := &mockDispatcher{done: make(chan scheduler.Completion, 1)}
	server := New(context.Background(), dispatcher, newStore(), testLayout(t), zap.NewNop())
	handler := server.Handler()

	rec := do(t, handler, http.MethodPost, "/api/v1/autofit/2024-03-06")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, handler, http.MethodPost, "/api/v1/autofit/2024-03-07")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "run_in_progress")
	assert.Len(t, dispatcher.dates, 1)

	dispatcher.done <- scheduler.Completion{Date: dispatcher.dates[0], Summary: &scheduler.Summary{}}
	close(dispatcher.done)
	server.Wait()

	dispatcher.done = make(chan scheduler.Completion, 1)
	rec = do(t, handler, http.MethodPost, "/api/v1/autofit/2024-03-07")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	close(dispatcher.done)
	server.Wait()
}

// completedDispatcher hands back a channel that already holds the result, so the
// run finishes while the 202 response is still being written
type completedDispatcher struct{}

func (completedDispatcher) Dispatch(ctx context.Context, date time.Time) <-chan scheduler.Completion {
	done := make(chan scheduler.Completion, 1)
	done <- scheduler.Completion{Date: date, Summary: &scheduler.Summary{}}
	close(done)
	return done
}

func TestStartAutoFit_InstantCompletion(t *testing.T) {
	server := New(context.Background(), completedDispatcher{}, newStore(), testLayout(t), zap.NewNop())
	handler := server.Handler()

	for i := 0; i < 200; i++ {
		rec := do(t, handler, http.MethodPost, "/api/v1/autofit/2024-03-06")
		require.Equal(t, http.StatusAccepted, rec.Code)

		var accepted RunStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
		assert.True(t, accepted.Running, "the accepted body describes the run as dispatched")

		// Poll concurrently with awaitRun
		do(t, handler, http.MethodGet, "/api/v1/autofit")
		server.Wait()
	}

	rec := do(t, handler, http.MethodGet, "/api/v1/autofit")
	var finished RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &finished))
	assert.False(t, finished.Running)
}

func TestStartAutoFit_RecordsFailure(t *testing.T) {
	dispatcher := &mockDispatcher{done: make(chan scheduler.Completion, 1)}
	server := New(context.Background(), dispatcher, newStore(), testLayout(t), zap.NewNop())
	handler := server.Handler()

	dispatcher.done <- scheduler.Completion{Err: context.Canceled}
	close(dispatcher.done)

	rec := do(t, handler, http.MethodPost, "/api/v1/autofit/2024-03-06")
	require.Equal(t, http.StatusAccepted, rec.Code)
	server.Wait()

	rec = do(t, handler, http.MethodGet, "/api/v1/autofit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "context canceled")
}

func TestBadDate(t *testing.T) {
	handler := New(context.Background(), &mockDispatcher{}, newStore(), testLayout(t), zap.NewNop()).Handler()

	for _, path := range []string{"/api/v1/autofit/06-03-2024", "/api/v1/days/tomorrow"} {
		method := http.MethodGet
		if strings.Contains(path, "autofit") {
			method = http.MethodPost
		}
		rec := do(t, handler, method, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "invalid_date")
	}
}

func TestRunStatus_NoRuns(t *testing.T) {
	handler := New(context.Background(), &mockDispatcher{}, newStore(), testLayout(t), zap.NewNop()).Handler()

	rec := do(t, handler, http.MethodGet, "/api/v1/autofit")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	handler := New(context.Background(), &mockDispatcher{}, newStore(), testLayout(t), zap.NewNop()).Handler()

	rec := do(t, handler, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, handler, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "autofit_http_requests_total")

	rec = do(t, handler, http.MethodGet, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
