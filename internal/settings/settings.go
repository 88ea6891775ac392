// Package settings stores per-channel chat settings.
//
// Currently the only setting is the reasoning effort forwarded to
// reasoning-capable models. Settings are keyed by channel so different
// channels can trade latency against answer quality independently.
package settings

import (
	"context"
	"fmt"
	"strings"
)

// Reasoning effort levels, ordered from cheapest to most thorough.
// EffortNone disables reasoning entirely.
const (
	EffortNone    = "none"
	EffortMinimal = "minimal"
	EffortLow     = "low"
	EffortMedium  = "medium"
	EffortHigh    = "high"
)

// Efforts lists every accepted reasoning effort level.
var Efforts = []string{EffortNone, EffortMinimal, EffortLow, EffortMedium, EffortHigh}

// ValidateEffort normalizes and checks a user-supplied effort level.
func ValidateEffort(effort string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(effort))
	for _, e := range Efforts {
		if normalized == e {
			return normalized, nil
		}
	}
	return "", fmt.Errorf("settings: invalid reasoning effort %q, must be one of %s",
		effort, strings.Join(Efforts, ", "))
}

// Store persists per-channel settings.
// Implementations must be safe for concurrent use.
type Store interface {
	// ReasoningEffort returns the channel's effort level, or "" when none
	// has been set.
	ReasoningEffort(ctx context.Context, channelID string) (string, error)

	// SetReasoningEffort stores the channel's effort level. The value must
	// already be validated.
	SetReasoningEffort(ctx context.Context, channelID, effort string) error
}
