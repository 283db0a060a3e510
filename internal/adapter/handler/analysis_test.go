package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
	analysisuse "github.com/johnquangdev/qualcoder/internal/usecase/analysis"
	"github.com/johnquangdev/qualcoder/pkg/validator"
)

type stubService struct {
	transcript *entities.Transcript
	run        *entities.AnalysisRun
	submitErr  error
}

func (s *stubService) SubmitTranscript(_ context.Context, title string, utterances []entities.Utterance) (*entities.Transcript, *entities.AnalysisRun, error) {
	if s.submitErr != nil {
		return nil, nil, s.submitErr
	}
	transcript := entities.NewTranscript(title, utterances)
	run := entities.NewAnalysisRun(transcript.ID)
	return transcript, run, nil
}

func (s *stubService) GetTranscript(_ context.Context, id uuid.UUID) (*entities.Transcript, error) {
	if s.transcript == nil || s.transcript.ID != id {
		return nil, entities.ErrTranscriptNotFound
	}
	return s.transcript, nil
}

func (s *stubService) ListTranscripts(_ context.Context, _ int) ([]entities.Transcript, error) {
	if s.transcript == nil {
		return nil, nil
	}
	return []entities.Transcript{*s.transcript}, nil
}

func (s *stubService) DeleteTranscript(_ context.Context, id uuid.UUID) error {
	if s.transcript == nil || s.transcript.ID != id {
		return entities.ErrTranscriptNotFound
	}
	return nil
}

func (s *stubService) GetRun(_ context.Context, id uuid.UUID) (*entities.AnalysisRun, error) {
	if s.run == nil || s.run.ID != id {
		return nil, entities.ErrRunNotFound
	}
	return s.run, nil
}

func (s *stubService) ListRuns(_ context.Context, _ uuid.UUID) ([]entities.AnalysisRun, error) {
	if s.run == nil {
		return nil, nil
	}
	return []entities.AnalysisRun{*s.run}, nil
}

func (s *stubService) GetReliabilitySummary(_ context.Context, id uuid.UUID) (*entities.ReliabilitySummary, error) {
	if s.transcript == nil || s.transcript.ID != id {
		return nil, entities.ErrTranscriptNotFound
	}
	return &entities.ReliabilitySummary{Interpretation: "undefined", Undefined: true}, nil
}

func (s *stubService) Analyze(_ context.Context, _ []entities.Utterance) (*analysisuse.Bundle, error) {
	return nil, nil
}

func (s *stubService) StartWorkerPool(_ context.Context, _ int) error { return nil }
func (s *stubService) StopWorkerPool() error                          { return nil }

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validator.New()
	return e
}

func TestSubmitTranscript(t *testing.T) {
	e := newEcho()
	h := NewAnalysis(&stubService{}, nil)

	body := `{"title":"pilot interview","utterances":[{"speaker":"P1","text":"hello there"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/transcripts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.SubmitTranscript(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			TranscriptID   string `json:"transcript_id"`
			RunID          string `json:"run_id"`
			Status         string `json:"status"`
			UtteranceCount int    `json:"utterance_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Data.Status != string(entities.RunStatusPending) {
		t.Fatalf("expected pending run, got %s", resp.Data.Status)
	}
	if resp.Data.UtteranceCount != 1 {
		t.Fatalf("expected 1 utterance, got %d", resp.Data.UtteranceCount)
	}
}

func TestSubmitTranscript_ValidationFailure(t *testing.T) {
	e := newEcho()
	h := NewAnalysis(&stubService{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"utterances":[{"text":"hello"}]}`},
		{"empty utterances", `{"title":"x","utterances":[]}`},
		{"utterance without text", `{"title":"x","utterances":[{"speaker":"P1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/transcripts", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			if err := h.SubmitTranscript(e.NewContext(req, rec)); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	e := newEcho()
	h := NewAnalysis(&stubService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	if err := h.GetRun(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetRun_InvalidID(t *testing.T) {
	e := newEcho()
	h := NewAnalysis(&stubService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.GetRun(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetRun_IncludesStoredReports(t *testing.T) {
	e := newEcho()
	run := entities.NewAnalysisRun(uuid.New())
	run.Strategy = "deductive_primary"
	run.Reliability = []byte(`{"overall_alpha":0.82}`)
	run.MarkAsCompleted()
	h := NewAnalysis(&stubService{run: run}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(run.ID.String())

	if err := h.GetRun(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data struct {
			Status      string `json:"status"`
			Strategy    string `json:"strategy"`
			Reliability struct {
				OverallAlpha float64 `json:"overall_alpha"`
			} `json:"reliability"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Data.Status != string(entities.RunStatusCompleted) {
		t.Fatalf("expected completed run, got %s", resp.Data.Status)
	}
	if resp.Data.Reliability.OverallAlpha != 0.82 {
		t.Fatalf("expected stored reliability report, got %s", rec.Body.String())
	}
}

func TestDeleteTranscript(t *testing.T) {
	e := newEcho()
	transcript := entities.NewTranscript("pilot", []entities.Utterance{{ID: "u1", Text: "hi"}})
	h := NewAnalysis(&stubService{transcript: transcript}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(transcript.ID.String())

	if err := h.DeleteTranscript(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
