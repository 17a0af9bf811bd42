package health

import (
	"context"
	"testing"
	"time"
)

func healthyChecker(message string) Checker {
	return NewCheckerFunc("healthy", func(ctx context.Context) Result {
		return Healthy(message)
	})
}

func TestNewAggregator(t *testing.T) {
	agg := NewAggregator()
	if agg.config.Timeout != 10*time.Second {
		t.Errorf("default Timeout = %v, want 10s", agg.config.Timeout)
	}

	agg = NewAggregator(AggregatorConfig{Timeout: 5 * time.Second})
	if agg.config.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", agg.config.Timeout)
	}

	agg = NewAggregator(AggregatorConfig{})
	if agg.config.Timeout != 10*time.Second {
		t.Errorf("zero Timeout = %v, want default 10s", agg.config.Timeout)
	}
}

func TestAggregator_RegisterUnregister(t *testing.T) {
	agg := NewAggregator()
	agg.Register("card_api", healthyChecker("ok"))

	names := agg.CheckerNames()
	if len(names) != 1 || names[0] != "card_api" {
		t.Fatalf("CheckerNames() = %v, want [card_api]", names)
	}

	agg.Unregister("card_api")
	if len(agg.CheckerNames()) != 0 {
		t.Errorf("CheckerNames() = %v after Unregister, want empty", agg.CheckerNames())
	}
}

func TestAggregator_CheckerNamesOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Register("card_api", healthyChecker("ok"))
	agg.Register("cache:api", healthyChecker("ok"))
	agg.Register("memory", healthyChecker("ok"))

	names := agg.CheckerNames()
	want := []string{"card_api", "cache:api", "memory"}
	if len(names) != len(want) {
		t.Fatalf("CheckerNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("CheckerNames()[%d] = %v, want %v", i, names[i], want[i])
		}
	}
}

func TestAggregator_Check(t *testing.T) {
	agg := NewAggregator()
	agg.Register("card_api", healthyChecker("ok"))

	result, err := agg.Check(context.Background(), "card_api")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
	if result.Duration <= 0 {
		t.Error("Duration should be set")
	}
}

func TestAggregator_CheckNotFound(t *testing.T) {
	agg := NewAggregator()

	_, err := agg.Check(context.Background(), "nonexistent")
	if err != ErrCheckerNotFound {
		t.Errorf("Check() error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register("healthy", healthyChecker("ok"))
	agg.Register("degraded", NewCheckerFunc("degraded", func(ctx context.Context) Result {
		return Degraded("slow")
	}))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results["healthy"].Status != StatusHealthy {
		t.Errorf("healthy status = %v, want StatusHealthy", results["healthy"].Status)
	}
	if results["degraded"].Status != StatusDegraded {
		t.Errorf("degraded status = %v, want StatusDegraded", results["degraded"].Status)
	}
}

func TestAggregator_CheckAllEmpty(t *testing.T) {
	agg := NewAggregator()

	results := agg.CheckAll(context.Background())
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestAggregator_TimeoutIsPerCheck(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 50 * time.Millisecond})

	agg.Register("fast", healthyChecker("ok"))
	agg.Register("slow", NewCheckerFunc("slow", func(ctx context.Context) Result {
		time.Sleep(200 * time.Millisecond)
		return Healthy("ok")
	}))

	start := time.Now()
	results := agg.CheckAll(context.Background())
	elapsed := time.Since(start)

	if results["fast"].Status != StatusHealthy {
		t.Errorf("fast status = %v, want StatusHealthy", results["fast"].Status)
	}
	if results["slow"].Status != StatusUnhealthy {
		t.Errorf("slow status = %v, want StatusUnhealthy", results["slow"].Status)
	}
	if results["slow"].Error != ErrCheckTimeout {
		t.Errorf("slow error = %v, want ErrCheckTimeout", results["slow"].Error)
	}

	// The slow checker is abandoned at its own deadline, not the sum of
	// both checks.
	if elapsed >= 200*time.Millisecond {
		t.Errorf("CheckAll took %v, want well under the slow checker's sleep", elapsed)
	}
}

func TestAggregator_OverallStatus(t *testing.T) {
	agg := NewAggregator()

	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{"empty", map[string]Result{}, StatusHealthy},
		{"all healthy", map[string]Result{
			"a": Healthy("ok"),
			"b": Healthy("ok"),
		}, StatusHealthy},
		{"one degraded", map[string]Result{
			"a": Healthy("ok"),
			"b": Degraded("slow"),
		}, StatusDegraded},
		{"one unhealthy", map[string]Result{
			"a": Healthy("ok"),
			"b": Unhealthy("down", nil),
		}, StatusUnhealthy},
		{"unhealthy overrides degraded", map[string]Result{
			"a": Degraded("slow"),
			"b": Unhealthy("down", nil),
		}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := agg.OverallStatus(tt.results); got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregator_Report(t *testing.T) {
	agg := NewAggregator()
	agg.Register("healthy", healthyChecker("ok"))
	agg.Register("unhealthy", NewCheckerFunc("unhealthy", func(ctx context.Context) Result {
		return Unhealthy("down", nil)
	}))

	report := agg.Report(context.Background())

	if report.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Errorf("len(Checks) = %d, want 2", len(report.Checks))
	}
	if report.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestAggregator_Checker(t *testing.T) {
	agg := NewAggregator()
	agg.Register("healthy", healthyChecker("ok"))

	checker := agg.Checker()
	if checker.Name() != "aggregate" {
		t.Errorf("Name() = %v, want 'aggregate'", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
	if result.Details == nil {
		t.Error("Details should not be nil")
	}
}

func TestAggregator_CheckerWithUnhealthy(t *testing.T) {
	agg := NewAggregator()
	agg.Register("unhealthy", NewCheckerFunc("unhealthy", func(ctx context.Context) Result {
		return Unhealthy("down", nil)
	}))

	result := agg.Checker().Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy", result.Status)
	}
	if result.Message != "some checks failed" {
		t.Errorf("Message = %v, want 'some checks failed'", result.Message)
	}
}

func TestAggregator_RegisterDuplicate(t *testing.T) {
	agg := NewAggregator()
	agg.Register("card_api", healthyChecker("first"))
	agg.Register("card_api", healthyChecker("second"))

	names := agg.CheckerNames()
	if len(names) != 1 {
		t.Errorf("len(CheckerNames()) = %d after duplicate, want 1", len(names))
	}

	result, _ := agg.Check(context.Background(), "card_api")
	if result.Message != "second" {
		t.Errorf("Message = %v, want 'second'", result.Message)
	}
}
