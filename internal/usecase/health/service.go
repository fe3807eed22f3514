package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer searches.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	Backends int
	Previews int
}

// Service coordinates health checks.
type Service struct {
	cache    CachePinger
	backends Counter
	previews Counter
}

// New creates a Service. cache is nil when only the local tier is used;
// previews may be nil.
func New(cache CachePinger, backends, previews Counter) *Service {
	return &Service{cache: cache, backends: backends, previews: previews}
}

// Check runs health checks against all components.
// Without a single backend the service is unhealthy; a failing remote
// cache only degrades it since lookups fall back to misses.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	r := Report{Status: Healthy, Checks: checks}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
			r.Status = Degraded
		} else {
			checks["cache"] = CheckOK
		}
	}

	r.Backends = s.backends.Len()
	if r.Backends == 0 {
		checks["backends"] = CheckError
		r.Status = Unhealthy
	} else {
		checks["backends"] = CheckOK
	}

	if s.previews != nil {
		r.Previews = s.previews.Len()
	}
	return r
}
