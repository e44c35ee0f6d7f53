// Package engine wires the Variable Registry (C4), Logic Engine (C3, held
// inside the registry), Layer Graph (C5, likewise), and Stage Machine (C6)
// behind the single public surface spec §6 describes: ConfigVar.* lives on
// variable.Registry/variable.Variable, Stage.* lives on stage.Stage, and
// Engine.Initialize is this type's one constructor-time entry point.
// Grounded on NewDefaultSatResolver as the composition root that owns
// cache+solver together (satresolver.go).
package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/CROCODILE-CESM/visualCaseGen/pkg/catalog"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/expr"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/logic"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/stage"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/variable"
)

// RelationsBundle is the relational-assertions bundle contract of spec §6:
// a function that, given the locked registry, produces the full set of
// invariants and when-clauses to register.
type RelationsBundle func(*variable.Registry) []logic.Relation

// Engine is the authoritative composition root a host constructs once
// (spec §5: "single authoritative Engine context").
type Engine struct {
	Vars    *variable.Registry
	Catalog catalog.DomainCatalog
	stages  *stage.Machine
	log     logrus.FieldLogger
}

// New constructs an Engine with a fresh, unlocked Variable Registry. The
// host defines every Variable against e.Vars before calling Initialize.
func New(log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{Vars: variable.New(log), log: log}
}

// Initialize locks the registry, registers the relation bundle, attaches
// the catalog, and starts the Stage Machine over root (spec §6:
// "Engine.initialize(catalog, relations, root_stage)"). It must be called
// exactly once, after every Variable has been defined.
func (e *Engine) Initialize(cat catalog.DomainCatalog, relations RelationsBundle, root *stage.Stage) error {
	e.Catalog = cat

	if err := e.Vars.Lock(); err != nil {
		return err
	}
	if err := e.Vars.RegisterRelations(relations(e.Vars)); err != nil {
		return err
	}

	e.stages = stage.NewMachine(root, e.Vars, e.log)
	for _, name := range e.Vars.Names() {
		v, ok := e.Vars.Get(name)
		if !ok {
			continue
		}
		v.OnChange(func(*expr.Value) { e.stages.Reevaluate() })
	}
	e.stages.Reevaluate()
	return nil
}

// Active returns the Stage Machine's currently active leaf Stage.
func (e *Engine) Active() *stage.Stage {
	if e.stages == nil {
		return nil
	}
	return e.stages.Active()
}
