package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests     uint64
	errorRequests     uint64
	rateLimited       uint64
	totalDurationMs   uint64
	calculations      uint64
	calculationErrors uint64
	payrollRuns       uint64
	payrollEmployees  uint64
	payrollFailures   uint64
	payrollDurationMs uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) RecordRequest(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordCalculation(err error) {
	atomic.AddUint64(&c.calculations, 1)
	if err != nil {
		atomic.AddUint64(&c.calculationErrors, 1)
	}
}

func (c *Collector) RecordRun(succeeded, failed int, duration time.Duration) {
	atomic.AddUint64(&c.payrollRuns, 1)
	atomic.AddUint64(&c.payrollEmployees, uint64(succeeded+failed))
	atomic.AddUint64(&c.payrollFailures, uint64(failed))
	atomic.AddUint64(&c.payrollDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":             total,
		"errorsTotal":               atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal":          atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":             avg,
		"totalDurationMs":           totalMs,
		"calculationsTotal":         atomic.LoadUint64(&c.calculations),
		"calculationErrorsTotal":    atomic.LoadUint64(&c.calculationErrors),
		"payrollRunsTotal":          atomic.LoadUint64(&c.payrollRuns),
		"payrollEmployeesTotal":     atomic.LoadUint64(&c.payrollEmployees),
		"payrollFailuresTotal":      atomic.LoadUint64(&c.payrollFailures),
		"payrollRunDurationMsTotal": atomic.LoadUint64(&c.payrollDurationMs),
	}
}
