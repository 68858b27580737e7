package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goob/backend/internal/export"
	"github.com/goob/backend/internal/models"
)

type stubExportService struct {
	job        export.Job
	enqueueErr error
	statusJob  export.Job
	statusErr  error
}

func (s *stubExportService) Enqueue(context.Context, models.User) (export.Job, error) {
	return s.job, s.enqueueErr
}

func (s *stubExportService) Status(string, string) (export.Job, error) {
	return s.statusJob, s.statusErr
}

func TestExportHandlerEnqueue(t *testing.T) {
	svc := &stubExportService{job: export.Job{ID: "job-1", UserID: "user-1", Status: export.JobStatusPending, CreatedAt: time.Now()}}
	h := ExportHandler{
		Identity: stubResolver{user: models.User{ID: "user-1"}},
		Exports:  svc,
	}

	req := authedRequest(http.MethodPost, "/api/v1/export", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	var body exportJobView
	decodeBody(t, rec, &body)
	if body.ID != "job-1" || body.Status != export.JobStatusPending {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestExportHandlerStatus(t *testing.T) {
	svc := &stubExportService{statusJob: export.Job{ID: "job-1", UserID: "user-1", Status: export.JobStatusReady, Location: "exports/user-1.json"}}
	h := ExportHandler{
		Identity: stubResolver{user: models.User{ID: "user-1"}},
		Exports:  svc,
	}

	req := authedRequest(http.MethodGet, "/api/v1/export?jobId=job-1", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body exportJobView
	decodeBody(t, rec, &body)
	if body.Status != export.JobStatusReady || body.Location != "exports/user-1.json" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestExportHandlerStatusUnknownJob(t *testing.T) {
	h := ExportHandler{
		Identity: stubResolver{user: models.User{ID: "user-1"}},
		Exports:  &stubExportService{statusErr: export.ErrJobNotFound},
	}

	req := authedRequest(http.MethodGet, "/api/v1/export?jobId=job-9", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestExportHandlerDisabled(t *testing.T) {
	h := ExportHandler{Identity: stubResolver{user: models.User{ID: "user-1"}}}

	req := authedRequest(http.MethodPost, "/api/v1/export", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
