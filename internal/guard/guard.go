// Package guard holds in-process protections for outbound calls and hot
// endpoints.
package guard

import "time"

// Result is the outcome of a guard check.
type Result struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"`
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
