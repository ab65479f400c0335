package service

import "log"

// attemptOr runs an optional-enhancement stage and substitutes the
// fallback value on any failure. Both degradable stages (query
// refinement, reranking) go through this so the degraded-mode policy is
// enforced at the component boundary rather than by caller discipline.
// Failures are logged and never propagate.
func attemptOr[T any](label string, fallback T, attempt func() (T, error)) T {
	result, err := attempt()
	if err != nil {
		log.Printf("Warning: %s failed: %v. Falling back.", label, err)
		return fallback
	}
	return result
}
