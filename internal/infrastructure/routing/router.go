// Package routing resolves the owning team for a remediation task from a
// YAML routing table, falling back to the control catalog owners.
package routing

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
)

// DefaultTeam owns anything the table and the catalog cannot place.
const DefaultTeam = "BSA Officer"

// Table is the on-disk routing configuration.
//
//	default_team: BSA Officer
//	high_effort_team: Compliance Projects
//	overrides:
//	  CDD-01: Onboarding Operations
type Table struct {
	DefaultTeam string `yaml:"default_team"`
	// HighEffortTeam, when set, takes over any gap the engine marked as
	// high effort regardless of the control owner.
	HighEffortTeam string            `yaml:"high_effort_team"`
	Overrides      map[string]string `yaml:"overrides"`
}

type Router struct {
	table Table
}

// NewRouter builds a router from an in-memory table.
func NewRouter(table Table) *Router {
	if strings.TrimSpace(table.DefaultTeam) == "" {
		table.DefaultTeam = DefaultTeam
	}
	return &Router{table: table}
}

// LoadRouter reads the routing table from a YAML file. An empty path yields
// catalog-only routing with the built-in default team.
func LoadRouter(path string) (*Router, error) {
	if strings.TrimSpace(path) == "" {
		return NewRouter(Table{}), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing table: %w", err)
	}
	var table Table
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse routing table: %w", err)
	}
	return NewRouter(table), nil
}

// Route is total: every (control, effort) pair resolves to some team.
func (r *Router) Route(controlID string, effort domain.EffortLevel) string {
	if r.table.HighEffortTeam != "" && effort == domain.EffortHigh {
		return r.table.HighEffortTeam
	}
	if team, ok := r.table.Overrides[controlID]; ok && strings.TrimSpace(team) != "" {
		return team
	}
	if control, ok := domain.ControlByID(controlID); ok && len(control.Owners) > 0 {
		return control.Owners[0]
	}
	return r.table.DefaultTeam
}
