package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bladeshare/bladeshare/pkg/errors"
)

func TestObserveOperation(t *testing.T) {
	c := NewCollector("bladeshare")

	c.ObserveOperation("create_share", 10*time.Millisecond, nil)
	c.ObserveOperation("create_share", 20*time.Millisecond, nil)
	c.ObserveOperation("delete_share", 5*time.Millisecond,
		errors.NewError(errors.ErrCodeBusy, "operation in progress"))

	success := testutil.ToFloat64(c.operationCounter.WithLabelValues("create_share", "success"))
	if success != 2 {
		t.Errorf("create_share success count = %v, want 2", success)
	}
	failed := testutil.ToFloat64(c.operationCounter.WithLabelValues("delete_share", "error"))
	if failed != 1 {
		t.Errorf("delete_share error count = %v, want 1", failed)
	}
	busy := testutil.ToFloat64(c.errorCounter.WithLabelValues("delete_share", "BUSY"))
	if busy != 1 {
		t.Errorf("BUSY error count = %v, want 1", busy)
	}
}

func TestSetCapacity(t *testing.T) {
	c := NewCollector("bladeshare")

	c.SetCapacity(100, 60, 25)
	c.SetDataReduction(3.1)

	if got := testutil.ToFloat64(c.capacityTotal); got != 100 {
		t.Errorf("capacityTotal = %v", got)
	}
	if got := testutil.ToFloat64(c.capacityFree); got != 60 {
		t.Errorf("capacityFree = %v", got)
	}
	if got := testutil.ToFloat64(c.capacityProvisioned); got != 25 {
		t.Errorf("capacityProvisioned = %v", got)
	}
	if got := testutil.ToFloat64(c.dataReduction); got != 3.1 {
		t.Errorf("dataReduction = %v", got)
	}
}

func TestHandler(t *testing.T) {
	c := NewCollector("bladeshare")
	c.SetCapacity(100, 60, 25)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "bladeshare_array_capacity_bytes 100") {
		t.Errorf("exposition missing capacity gauge:\n%s", body)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector

	// All methods must be safe on a nil collector.
	c.ObserveOperation("create_share", time.Millisecond, nil)
	c.SetCapacity(1, 2, 3)
	c.SetDataReduction(1.0)
	if c.Handler() == nil {
		t.Error("nil collector Handler returned nil")
	}
}
