package panel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quorum/internal/schema"
)

// Seat is one fixed panel position. Role ids are stable across rounds; the
// consensus flags decide which structural rules the seat participates in.
type Seat struct {
	Role        string            `yaml:"role" json:"role"`
	Codename    string            `yaml:"codename" json:"codename"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	OutputKind  schema.OutputKind `yaml:"output_kind" json:"output_kind"`

	// Veto marks the seat whose trigger verdicts block a go outcome.
	Veto         bool     `yaml:"veto,omitempty" json:"veto,omitempty"`
	VetoTriggers []string `yaml:"veto_triggers,omitempty" json:"veto_triggers,omitempty"`

	// ArchitectureLens marks the seat whose pivot vote carries the
	// complexity penalty unless it names a minimal path.
	ArchitectureLens bool `yaml:"architecture_lens,omitempty" json:"architecture_lens,omitempty"`

	// Creative marks the seat whose proposal needs corroboration in
	// creative mode.
	Creative bool `yaml:"creative,omitempty" json:"creative,omitempty"`
}

// Panel is the full board composition plus the cross-seat references used by
// the veto and creative rules. It is static configuration resolved before any
// round starts.
type Panel struct {
	Seats []Seat `yaml:"seats" json:"seats"`

	// VetoOverrideRoles names the two seats whose joint high-confidence go
	// vote bypasses the veto.
	VetoOverrideRoles []string `yaml:"veto_override_roles" json:"veto_override_roles"`

	// CorroboratorRoles names the two seats that must back the creative
	// seat's proposal in creative mode.
	CorroboratorRoles []string `yaml:"corroborator_roles" json:"corroborator_roles"`
}

// ConfigError marks a malformed panel. It is the one error class that must be
// fatal before a round starts: a broken panel cannot produce a meaningful
// result, so it is never degraded into a failed seat.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("panel configuration: %s", e.Reason)
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the panel for structural defects.
func (p *Panel) Validate() error {
	if len(p.Seats) == 0 {
		return configErrorf("no seats configured")
	}

	roles := make(map[string]bool, len(p.Seats))
	vetoSeats := 0
	creativeSeats := 0
	for _, seat := range p.Seats {
		if seat.Role == "" {
			return configErrorf("seat %q has no role id", seat.Codename)
		}
		if roles[seat.Role] {
			return configErrorf("duplicate role id %q", seat.Role)
		}
		roles[seat.Role] = true

		if !schema.KnownKind(seat.OutputKind) {
			return configErrorf("seat %q has unknown output kind %q", seat.Role, seat.OutputKind)
		}
		if seat.Veto {
			vetoSeats++
			if len(seat.VetoTriggers) == 0 {
				return configErrorf("veto seat %q has no trigger verdicts", seat.Role)
			}
		}
		if seat.Creative {
			creativeSeats++
		}
	}

	if vetoSeats > 1 {
		return configErrorf("%d veto seats configured, at most one allowed", vetoSeats)
	}
	if creativeSeats > 1 {
		return configErrorf("%d creative seats configured, at most one allowed", creativeSeats)
	}

	if vetoSeats == 1 {
		if len(p.VetoOverrideRoles) != 2 {
			return configErrorf("veto seat requires exactly 2 override roles, got %d", len(p.VetoOverrideRoles))
		}
		if p.VetoOverrideRoles[0] == p.VetoOverrideRoles[1] {
			return configErrorf("veto override roles must be distinct")
		}
		for _, role := range p.VetoOverrideRoles {
			if !roles[role] {
				return configErrorf("veto override role %q is not a configured seat", role)
			}
			if veto := p.VetoSeat(); veto != nil && veto.Role == role {
				return configErrorf("veto seat %q cannot be its own override", role)
			}
		}
	}

	if creativeSeats == 1 {
		if len(p.CorroboratorRoles) != 2 {
			return configErrorf("creative seat requires exactly 2 corroborator roles, got %d", len(p.CorroboratorRoles))
		}
		for _, role := range p.CorroboratorRoles {
			if !roles[role] {
				return configErrorf("corroborator role %q is not a configured seat", role)
			}
			if creative := p.CreativeSeat(); creative != nil && creative.Role == role {
				return configErrorf("creative seat %q cannot corroborate itself", role)
			}
		}
	}

	return nil
}

// VetoSeat returns the seat flagged with veto power, or nil.
func (p *Panel) VetoSeat() *Seat {
	for i := range p.Seats {
		if p.Seats[i].Veto {
			return &p.Seats[i]
		}
	}
	return nil
}

// CreativeSeat returns the seat flagged as creative, or nil.
func (p *Panel) CreativeSeat() *Seat {
	for i := range p.Seats {
		if p.Seats[i].Creative {
			return &p.Seats[i]
		}
	}
	return nil
}

// ArchitectureSeat returns the seat flagged as the architecture lens, or nil.
func (p *Panel) ArchitectureSeat() *Seat {
	for i := range p.Seats {
		if p.Seats[i].ArchitectureLens {
			return &p.Seats[i]
		}
	}
	return nil
}

// Roles returns the configured role ids in panel order.
func (p *Panel) Roles() []string {
	roles := make([]string, 0, len(p.Seats))
	for _, seat := range p.Seats {
		roles = append(roles, seat.Role)
	}
	return roles
}

// LoadFile reads and validates a YAML panel definition.
func LoadFile(path string) (*Panel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read panel file: %w", err)
	}
	var p Panel
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, configErrorf("parse %s: %v", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Default returns the standard 7-seat board.
func Default() *Panel {
	return &Panel{
		Seats: []Seat{
			{
				Role:        "product_operator",
				Codename:    "Lynx",
				Description: "User pain, UX friction, adoption, retention",
				OutputKind:  schema.KindMember,
			},
			{
				Role:        "growth_distribution",
				Codename:    "Wildfire",
				Description: "Acquisition loops, channels, spread mechanics",
				OutputKind:  schema.KindMember,
			},
			{
				Role:             "systems_architecture",
				Codename:         "Bedrock",
				Description:      "Simplest stable system, maintainability, cost",
				OutputKind:       schema.KindMember,
				ArchitectureLens: true,
			},
			{
				Role:        "capital_allocator",
				Codename:    "Leverage",
				Description: "ROI of time, leverage, compounding decisions",
				OutputKind:  schema.KindMember,
			},
			{
				Role:        "risk_reality",
				Codename:    "Sentinel",
				Description: "Blind spots, over-optimism, hidden complexity",
				OutputKind:  schema.KindMember,
			},
			{
				Role:        "creative_director",
				Codename:    "Prism",
				Description: "Positioning, narrative, differentiation",
				OutputKind:  schema.KindMember,
				Creative:    true,
			},
			{
				Role:         "product_purist",
				Codename:     "Razor",
				Description:  "Focus, simplicity, taste, ruthless cuts",
				OutputKind:   schema.KindPurist,
				Veto:         true,
				VetoTriggers: []string{string(schema.PuristCut), string(schema.PuristReframe)},
			},
		},
		VetoOverrideRoles: []string{"product_operator", "growth_distribution"},
		CorroboratorRoles: []string{"product_operator", "growth_distribution"},
	}
}
