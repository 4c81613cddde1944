package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/tbourn/go-insight-backend/internal/services"
)

func TestLeaveFeedback_Success(t *testing.T) {
	svc := &fakeFeedbackSvc{}
	r := newTestRouter(New(&fakeInsightSvc{}, nil, svc, nil))

	w := doJSON(t, r, http.MethodPost, "/insights/ins-1/feedback", `{"value":-1}`, map[string]string{"X-User-ID": "alice"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if svc.gotUser != "alice" || svc.gotID != "ins-1" || svc.gotVal != -1 {
		t.Fatalf("service received %q %q %d", svc.gotUser, svc.gotID, svc.gotVal)
	}
}

func TestLeaveFeedback_BindingRejectsBadValues(t *testing.T) {
	for _, body := range []string{`{}`, `{"value":0}`, `{"value":2}`, `{"value":"yes"}`, `{`} {
		r := newTestRouter(New(&fakeInsightSvc{}, nil, &fakeFeedbackSvc{}, nil))
		w := doJSON(t, r, http.MethodPost, "/insights/x/feedback", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d", body, w.Code)
		}
	}
}

func TestLeaveFeedback_ErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		wantCode string
	}{
		{services.ErrInsightNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrInvalidFeedback, http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrDuplicateFeedback, http.StatusConflict, ErrCodeConflict},
		{errors.New("db down"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		r := newTestRouter(New(&fakeInsightSvc{}, nil, &fakeFeedbackSvc{err: tc.err}, nil))
		w := doJSON(t, r, http.MethodPost, "/insights/x/feedback", `{"value":1}`, nil)
		if w.Code != tc.status {
			t.Fatalf("err %v: status = %d; want %d", tc.err, w.Code, tc.status)
		}
		var er ErrorResponse
		_ = json.Unmarshal(w.Body.Bytes(), &er)
		if er.Code != tc.wantCode {
			t.Fatalf("err %v: code = %q; want %q", tc.err, er.Code, tc.wantCode)
		}
	}
}
