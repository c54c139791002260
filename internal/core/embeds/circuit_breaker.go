package embeds

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// circuitState represents the state of a circuit breaker
type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Circuit is open (provider failing)
	stateHalfOpen                     // Testing if provider recovered
)

// circuitBreaker tracks failures per provider domain and stops sending
// resolution traffic to providers that keep failing.
type circuitBreaker struct {
	failures         map[string]int
	lastFailure      map[string]time.Time
	state            map[string]circuitState
	lastStateLog     map[string]time.Time
	failureThreshold int
	openDuration     time.Duration
	mu               sync.Mutex
}

// newCircuitBreaker creates a circuit breaker with default settings
func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: 3,               // Open after 3 consecutive failures
		openDuration:     5 * time.Minute, // Keep open for 5 minutes
		failures:         make(map[string]int),
		lastFailure:      make(map[string]time.Time),
		state:            make(map[string]circuitState),
		lastStateLog:     make(map[string]time.Time),
	}
}

// canAttempt checks if we should attempt to call this provider.
// Returns true if the circuit is closed or half-open (ready to retry).
func (cb *circuitBreaker) canAttempt(provider string) (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.getState(provider) {
	case stateOpen:
		lastFail := cb.lastFailure[provider]
		if time.Since(lastFail) > cb.openDuration {
			// Transition to half-open (allow one retry)
			cb.state[provider] = stateHalfOpen
			cb.logStateChange(provider, stateHalfOpen)
			return true, nil
		}
		return false, fmt.Errorf(
			"circuit breaker open for provider '%s' (failures: %d, next retry: %s)",
			provider,
			cb.failures[provider],
			lastFail.Add(cb.openDuration).Format("15:04:05"),
		)
	default:
		return true, nil
	}
}

// recordSuccess records a successful resolution, resetting failure count
func (cb *circuitBreaker) recordSuccess(provider string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.getState(provider)

	delete(cb.failures, provider)
	delete(cb.lastFailure, provider)
	cb.state[provider] = stateClosed

	if oldState != stateClosed {
		cb.logStateChange(provider, stateClosed)
	}
}

// recordFailure records a failed resolution attempt
func (cb *circuitBreaker) recordFailure(provider string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[provider]++
	cb.lastFailure[provider] = time.Now()

	failCount := cb.failures[provider]

	if failCount >= cb.failureThreshold {
		oldState := cb.getState(provider)
		cb.state[provider] = stateOpen
		if oldState != stateOpen {
			log.Printf(
				"[EMBED-CIRCUIT] Opening circuit for provider '%s' after %d consecutive failures. Last error: %v",
				provider, failCount, err,
			)
			cb.lastStateLog[provider] = time.Now()
		}
	} else {
		log.Printf("[EMBED-CIRCUIT] Failure %d/%d for provider '%s': %v",
			failCount, cb.failureThreshold, provider, err)
	}
}

// getState returns the current state (must be called with lock held)
func (cb *circuitBreaker) getState(provider string) circuitState {
	if state, exists := cb.state[provider]; exists {
		return state
	}
	return stateClosed
}

// logStateChange logs state transitions (must be called with lock held)
// Debounced to avoid log spam (max once per minute per provider)
func (cb *circuitBreaker) logStateChange(provider string, newState circuitState) {
	lastLog, exists := cb.lastStateLog[provider]
	if exists && time.Since(lastLog) < time.Minute {
		return
	}

	var stateStr string
	switch newState {
	case stateClosed:
		stateStr = "CLOSED (recovered)"
	case stateOpen:
		stateStr = "OPEN (failing)"
	case stateHalfOpen:
		stateStr = "HALF-OPEN (testing)"
	}

	log.Printf("[EMBED-CIRCUIT] Circuit for provider '%s' is now %s", provider, stateStr)
	cb.lastStateLog[provider] = time.Now()
}
