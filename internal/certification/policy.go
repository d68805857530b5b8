// Package certification is the single source of truth for what each
// certification level requires. The dispatch orchestrator and the billing
// collaborator both read this table; no other code may branch on the level.
package certification

import (
	"fmt"

	"github.com/notifica-api/internal/domain"
)

// Requirements lists the evidentiary steps and pricing metadata for one
// certification level.
type Requirements struct {
	Level                 domain.CertificationLevel `json:"level"`
	Label                 string                    `json:"label"`
	NeedsTimestamp        bool                      `json:"needs_timestamp"`
	NeedsExternalDelivery bool                      `json:"needs_external_delivery"`
	PriceCents            int                       `json:"price_cents"`
}

// Levels are totally ordered: each higher level's requirements are a strict
// superset of the one below it.
var table = map[domain.CertificationLevel]Requirements{
	domain.LevelSimple: {
		Level:      domain.LevelSimple,
		Label:      "Simple (document hash)",
		PriceCents: 990,
	},
	domain.LevelAdvanced: {
		Level:          domain.LevelAdvanced,
		Label:          "Advanced (hash + trusted timestamp)",
		NeedsTimestamp: true,
		PriceCents:     2990,
	},
	domain.LevelQualified: {
		Level:                 domain.LevelQualified,
		Label:                 "Qualified (hash + timestamp + third-party delivery)",
		NeedsTimestamp:        true,
		NeedsExternalDelivery: true,
		PriceCents:            7990,
	},
}

// RequirementsFor returns the requirement set for the given level.
func RequirementsFor(level domain.CertificationLevel) (Requirements, error) {
	r, ok := table[level]
	if !ok {
		return Requirements{}, fmt.Errorf("unknown certification level %q: %w", level, domain.ErrBadRequest)
	}
	return r, nil
}

// All returns every level's requirements, cheapest first. Used by the pricing
// endpoint so the UI and the policy can never diverge.
func All() []Requirements {
	return []Requirements{
		table[domain.LevelSimple],
		table[domain.LevelAdvanced],
		table[domain.LevelQualified],
	}
}
