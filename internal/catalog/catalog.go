// Package catalog holds the authored workout definitions and turns them into
// fully expanded domain workouts.
//
// A catalog is a YAML document. Each entry names an optional warmup, a list
// of blocks and an optional cooldown. A block with repeat > 0 is expanded
// with template.Repeat; a block without repeat contributes its phases as-is:
//
//	workouts:
//	  - id: 01932c1e-4b6a-7c15-97a4-0c5e7f2b9d06
//	    order: 6
//	    name: "1:00 Intervals"
//	    total_duration_minutes: 38
//	    description: "10 × 1-min hard with 1-min easy recovery"
//	    warmup: {name: Warmup, minutes: 12, bpm: 162}
//	    blocks:
//	      - repeat: 10
//	        phases:
//	          - {name: Hard, minutes: 1, bpm: 186}
//	          - {name: Easy, minutes: 1, bpm: 168}
//	    cooldown: {name: Cooldown, minutes: 6, bpm: 156}
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"jejak/backend/internal/domain"
	"jejak/backend/internal/template"
)

// ErrInvalidCatalog is wrapped by every validation failure from Load.
var ErrInvalidCatalog = errors.New("invalid workout catalog")

//go:embed default_catalog.yaml
var defaultCatalog []byte

// PhaseSpec is an authored phase. Minutes and Seconds add up.
type PhaseSpec struct {
	Name    string `mapstructure:"name"`
	Minutes int    `mapstructure:"minutes"`
	Seconds int    `mapstructure:"seconds"`
	BPM     int    `mapstructure:"bpm"`
}

// Phase converts the authored phase into a domain phase.
func (p PhaseSpec) Phase() domain.Phase {
	return domain.Phase{
		Name:            p.Name,
		DurationSeconds: template.Minutes(p.Minutes) + template.Seconds(p.Seconds),
		BPM:             p.BPM,
	}
}

// BlockSpec is a group of phases, optionally repeated.
type BlockSpec struct {
	Repeat int         `mapstructure:"repeat"`
	Phases []PhaseSpec `mapstructure:"phases"`
}

// Definition is one catalog entry.
type Definition struct {
	ID                   string      `mapstructure:"id"`
	Order                int         `mapstructure:"order"`
	Name                 string      `mapstructure:"name"`
	TotalDurationMinutes int         `mapstructure:"total_duration_minutes"`
	Description          string      `mapstructure:"description"`
	Warmup               *PhaseSpec  `mapstructure:"warmup"`
	Blocks               []BlockSpec `mapstructure:"blocks"`
	Cooldown             *PhaseSpec  `mapstructure:"cooldown"`
}

// Catalog is the full set of authored workouts.
type Catalog struct {
	Workouts []Definition `mapstructure:"workouts"`
}

// Load parses and validates a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrInvalidCatalog, err)
	}

	var c Catalog
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the built-in catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// Opener is satisfied by storage.CatalogSource.
type Opener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FromSource loads the catalog from src, or the built-in one when src is nil.
func FromSource(ctx context.Context, src Opener) (*Catalog, error) {
	if src == nil {
		return Default()
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Load(rc)
}

// Validate checks the invariants the store relies on: literal UUID ids,
// unique ids and display orders, and a non-empty sequence of positive phases.
func (c *Catalog) Validate() error {
	if len(c.Workouts) == 0 {
		return fmt.Errorf("%w: no workouts", ErrInvalidCatalog)
	}

	var errs []error
	ids := make(map[string]string, len(c.Workouts))
	orders := make(map[int]string, len(c.Workouts))
	for i, d := range c.Workouts {
		label := d.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}

		if parsed, err := uuid.Parse(d.ID); err != nil {
			errs = append(errs, fmt.Errorf("workout %s: id %q is not a UUID", label, d.ID))
		} else if prev, dup := ids[parsed.String()]; dup {
			errs = append(errs, fmt.Errorf("workout %s: id %s already used by %s", label, d.ID, prev))
		} else {
			ids[parsed.String()] = label
		}

		for j, b := range d.Blocks {
			if b.Repeat < 0 {
				errs = append(errs, fmt.Errorf("workout %s: block %d has negative repeat %d", label, j+1, b.Repeat))
			}
		}

		if prev, dup := orders[d.Order]; dup {
			errs = append(errs, fmt.Errorf("workout %s: order %d already used by %s", label, d.Order, prev))
		} else {
			orders[d.Order] = label
		}

		if d.Name == "" {
			errs = append(errs, fmt.Errorf("workout %s: name is required", label))
		}

		phases := d.Build().Phases
		if len(phases) == 0 {
			errs = append(errs, fmt.Errorf("workout %s: has no phases", label))
		}
		for j, p := range phases {
			if p.DurationSeconds <= 0 || p.BPM <= 0 {
				errs = append(errs, fmt.Errorf("workout %s: phase %d (%s) needs positive duration and bpm", label, j+1, p.Name))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return nil
}

// Build expands the definition into a workout with a flat phase sequence.
func (d Definition) Build() domain.Workout {
	var warmup, cooldown *domain.Phase
	if d.Warmup != nil {
		p := d.Warmup.Phase()
		warmup = &p
	}
	if d.Cooldown != nil {
		p := d.Cooldown.Phase()
		cooldown = &p
	}

	blocks := make([][]domain.Phase, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		phases := make([]domain.Phase, len(b.Phases))
		for i, p := range b.Phases {
			phases[i] = p.Phase()
		}
		if b.Repeat > 0 {
			phases = template.Repeat(b.Repeat, phases)
		}
		blocks = append(blocks, phases)
	}

	// Stores and lookups use the canonical spelling.
	id := d.ID
	if parsed, err := uuid.Parse(d.ID); err == nil {
		id = parsed.String()
	}

	return domain.Workout{
		ID:                   id,
		Order:                d.Order,
		Name:                 d.Name,
		Description:          d.Description,
		TotalDurationMinutes: d.TotalDurationMinutes,
		Phases:               template.Compose(warmup, blocks, cooldown),
	}
}

// Build expands every definition, keeping catalog order.
func (c *Catalog) Build() []domain.Workout {
	out := make([]domain.Workout, len(c.Workouts))
	for i, d := range c.Workouts {
		out[i] = d.Build()
	}
	return out
}
