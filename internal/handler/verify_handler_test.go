package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/factman/internal/model"
)

func TestVerifyArticle_Success(t *testing.T) {
	verified := handlerArticle("a1")
	verified.Verification = model.VerificationState{
		Phase: model.VerificationDone,
		Verdict: &model.Verdict{
			Status:     model.StatusTrue,
			Confidence: 0.95,
			Method:     model.MethodDatabaseMatch,
		},
	}
	svc := &mockHeadlineService{verifyArticle: verified}
	h := NewVerifyHandler(svc)

	rec := httptest.NewRecorder()
	h.VerifyArticle(rec, newIDRequest(http.MethodPost, "/api/headlines/a1/verify", "a1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(svc.verifyIDs) != 1 || svc.verifyIDs[0] != "a1" {
		t.Errorf("検証対象ID = %v, want [a1]", svc.verifyIDs)
	}

	var resp struct {
		ID           string `json:"id"`
		Verification struct {
			Phase   string `json:"phase"`
			Verdict struct {
				Status     string  `json:"status"`
				Confidence float64 `json:"confidence"`
				Method     string  `json:"method"`
			} `json:"verdict"`
		} `json:"verification"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if resp.Verification.Phase != "done" {
		t.Errorf("Phase = %q, want %q", resp.Verification.Phase, "done")
	}
	if resp.Verification.Verdict.Status != "true" {
		t.Errorf("Status = %q, want %q", resp.Verification.Verdict.Status, "true")
	}
	if resp.Verification.Verdict.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", resp.Verification.Verdict.Confidence)
	}
	if resp.Verification.Verdict.Method != "database_match" {
		t.Errorf("Method = %q, want %q", resp.Verification.Verdict.Method, "database_match")
	}
}

func TestVerifyArticle_NotFound_Returns404(t *testing.T) {
	svc := &mockHeadlineService{verifyErr: model.NewArticleNotFoundError("missing")}
	h := NewVerifyHandler(svc)

	rec := httptest.NewRecorder()
	h.VerifyArticle(rec, newIDRequest(http.MethodPost, "/api/headlines/missing/verify", "missing"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("ステータスコード = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestVerifyArticle_VerifyFailed_Returns500(t *testing.T) {
	svc := &mockHeadlineService{verifyErr: model.NewVerifyFailedError()}
	h := NewVerifyHandler(svc)

	rec := httptest.NewRecorder()
	h.VerifyArticle(rec, newIDRequest(http.MethodPost, "/api/headlines/a1/verify", "a1"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("ステータスコード = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
