package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestMetricOutcomes(t *testing.T) {
	errCounter := requestsTotal.WithLabelValues("transactions", "error")
	okCounter := requestsTotal.WithLabelValues("transactions", "ok")

	fail := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()
	c := New(srv.URL)

	// ответ вне 2xx считается ошибкой, а не успешным запросом
	errBefore := testutil.ToFloat64(errCounter)
	okBefore := testutil.ToFloat64(okCounter)
	if _, err := c.Transactions(context.Background()); err == nil {
		t.Fatal("ожидалась ошибка от 500")
	}
	if d := testutil.ToFloat64(errCounter) - errBefore; d != 1 {
		t.Errorf("error после 500: прирост %v, want 1", d)
	}
	if d := testutil.ToFloat64(okCounter) - okBefore; d != 0 {
		t.Errorf("ok после 500: прирост %v, want 0", d)
	}

	fail = false
	okBefore = testutil.ToFloat64(okCounter)
	if _, err := c.Transactions(context.Background()); err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if d := testutil.ToFloat64(okCounter) - okBefore; d != 1 {
		t.Errorf("ok после 200: прирост %v, want 1", d)
	}
}
