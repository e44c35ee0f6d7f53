// Command caseconfig is a headless driver over the configuration engine: it
// builds a representative CESM component catalog, initializes the engine
// with the cesm relational-assertions bundle, and walks one of a handful of
// named scenarios, logging every assignment attempt and the active Stage.
// Grounded on cmd/olm/main.go's flag-then-construct-then-run shape, scaled
// down to a single-process, non-networked tool.
package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/CROCODILE-CESM/visualCaseGen/pkg/catalog"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/engine"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/expr"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/stage"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/variable"
	"github.com/CROCODILE-CESM/visualCaseGen/relations/cesm"
)

var (
	debug    = pflag.Bool("debug", false, "use debug log level")
	scenario = pflag.String("scenario", "s1", "which seed scenario to run: s1-s6")
)

func main() {
	pflag.Parse()

	logger := logrus.New()
	if *debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	eng := engine.New(logger)
	cat := fixtureCatalog()

	if err := cesm.DefineVariables(eng.Vars, cat); err != nil {
		logger.WithError(err).Fatal("caseconfig: failed to define variables")
	}

	root := buildStages()
	if err := eng.Initialize(cat, cesm.Bundle, root); err != nil {
		logger.WithError(err).Fatal("caseconfig: failed to initialize engine")
	}

	eng.Vars.OnAlert(func(a variable.Alert) {
		logger.WithField("variable", a.Variable).Warnf("caseconfig: rejected - %s", a.Message)
	})

	run, ok := scenarios[*scenario]
	if !ok {
		logger.Fatalf("caseconfig: unknown scenario %q", *scenario)
	}
	run(eng, logger)

	if active := eng.Active(); active != nil {
		fmt.Printf("active stage: %s\n", active.Title())
	} else {
		fmt.Println("active stage: none (configuration complete)")
	}
}

// fixtureCatalog is a small but representative slice of the real CESM
// component matrix, just enough to exercise every relation in cesm.Bundle.
func fixtureCatalog() *catalog.Fixture {
	f := catalog.NewFixture()

	f.AddComponent(catalog.Component{Name: "cam", Class: catalog.ATM, Physics: map[string][]catalog.Option{
		"CAM60": {{Value: "SIMPLE", Description: "simplified physics"}, {Value: "FULL", Description: "full physics"}},
	}})
	f.AddComponent(catalog.Component{Name: "datm", Class: catalog.ATM, Physics: map[string][]catalog.Option{
		"CORE2": {{Value: "CORE2_NYF", Description: "normal-year forcing"}},
	}})

	f.AddComponent(catalog.Component{Name: "clm", Class: catalog.LND, Physics: map[string][]catalog.Option{
		"CLM50": {{Value: "SP", Description: "satellite phenology"}},
	}})
	f.AddComponent(catalog.Component{Name: "dlnd", Class: catalog.LND, Physics: map[string][]catalog.Option{
		"LND_DATA": {{Value: "LND_DATA_NYF", Description: "normal-year forcing"}},
	}})
	f.AddComponent(catalog.Component{Name: "slnd", Class: catalog.LND})

	f.AddComponent(catalog.Component{Name: "cice", Class: catalog.ICE, Physics: map[string][]catalog.Option{
		"CICE6": {{Value: "PRES", Description: "prescribed"}},
	}})
	f.AddComponent(catalog.Component{Name: "dice", Class: catalog.ICE, Physics: map[string][]catalog.Option{
		"ICE_DATA": {{Value: "ICE_DATA_SSMI", Description: "SSM/I ice fraction"}},
	}})
	f.AddComponent(catalog.Component{Name: "sice", Class: catalog.ICE})

	f.AddComponent(catalog.Component{Name: "pop", Class: catalog.OCN, Physics: map[string][]catalog.Option{
		"POP2": {{Value: "ECOSYS", Description: "ocean ecosystem"}},
	}})
	f.AddComponent(catalog.Component{Name: "mom", Class: catalog.OCN, Physics: map[string][]catalog.Option{
		"MOM6": {{Value: "DEFAULT", Description: "default config"}},
	}})
	f.AddComponent(catalog.Component{Name: "docn", Class: catalog.OCN, Physics: map[string][]catalog.Option{
		"DOCN": {{Value: "SOM", Description: "slab ocean"}, {Value: "IAF", Description: "interannual forcing"}},
	}})
	f.AddComponent(catalog.Component{Name: "socn", Class: catalog.OCN})

	f.AddComponent(catalog.Component{Name: "rtm", Class: catalog.ROF})
	f.AddComponent(catalog.Component{Name: "mosart", Class: catalog.ROF})
	f.AddComponent(catalog.Component{Name: "drof", Class: catalog.ROF, Physics: map[string][]catalog.Option{
		"ROF_DATA": {{Value: "ROF_DATA_NYF", Description: "normal-year forcing"}},
	}})
	f.AddComponent(catalog.Component{Name: "srof", Class: catalog.ROF})

	f.AddComponent(catalog.Component{Name: "cism", Class: catalog.GLC, Physics: map[string][]catalog.Option{
		"CISM2": {{Value: "NOEVOLVE", Description: "static ice sheet"}},
	}})
	f.AddComponent(catalog.Component{Name: "sglc", Class: catalog.GLC})

	f.AddComponent(catalog.Component{Name: "ww3", Class: catalog.WAV})
	f.AddComponent(catalog.Component{Name: "dwav", Class: catalog.WAV, Physics: map[string][]catalog.Option{
		"WAV_DATA": {{Value: "WAV_DATA_NYF", Description: "normal-year forcing"}},
	}})
	f.AddComponent(catalog.Component{Name: "swav", Class: catalog.WAV})

	return f
}

// buildStages builds one Components stage under the root, owning the seven
// COMP_* Variables. The ocean grid Variables are not part of any stage.
func buildStages() *stage.Stage {
	components := stage.New("Components", nil, []string{
		"COMP_ATM", "COMP_LND", "COMP_ICE", "COMP_OCN", "COMP_ROF", "COMP_GLC", "COMP_WAV",
	})
	return stage.New("Case Configuration", nil, nil, components)
}

type scenarioFunc func(*engine.Engine, logrus.FieldLogger)

var scenarios = map[string]scenarioFunc{
	"s1": scenarioCAMDataIce,
	"s2": scenarioStubOceanActiveWave,
	"s3": scenarioMosartRequiresCLM,
	"s4": scenarioMultiCauseViolation,
	"s5": scenarioCustomOceanGrid,
	"s6": scenarioOptionValidityPropagation,
}

func assign(v *variable.Registry, logger logrus.FieldLogger, name string, val expr.Value) {
	if err := v.Assign(name, &val); err != nil {
		logger.WithField("variable", name).Infof("rejected %s: %v", val.String(), err)
		return
	}
	logger.WithField("variable", name).Infof("assigned %s", val.String())
}

// scenarioCAMDataIce exercises "CAM cannot be coupled with Data ICE."
func scenarioCAMDataIce(e *engine.Engine, logger logrus.FieldLogger) {
	assign(e.Vars, logger, "COMP_ATM", expr.StringVal("cam"))
	assign(e.Vars, logger, "COMP_ICE", expr.StringVal("dice"))
}

// scenarioStubOceanActiveWave exercises the stub-ICE cascade rejecting an
// active wave component.
func scenarioStubOceanActiveWave(e *engine.Engine, logger logrus.FieldLogger) {
	assign(e.Vars, logger, "COMP_ICE", expr.StringVal("sice"))
	assign(e.Vars, logger, "COMP_LND", expr.StringVal("slnd"))
	assign(e.Vars, logger, "COMP_OCN", expr.StringVal("socn"))
	assign(e.Vars, logger, "COMP_ROF", expr.StringVal("srof"))
	assign(e.Vars, logger, "COMP_GLC", expr.StringVal("sglc"))
	assign(e.Vars, logger, "COMP_WAV", expr.StringVal("ww3"))
}

// scenarioMosartRequiresCLM exercises "Active runoff models can only be
// selected if CLM is the land component."
func scenarioMosartRequiresCLM(e *engine.Engine, logger logrus.FieldLogger) {
	assign(e.Vars, logger, "COMP_LND", expr.StringVal("dlnd"))
	assign(e.Vars, logger, "COMP_ROF", expr.StringVal("mosart"))
}

// scenarioMultiCauseViolation picks a component combination that a single
// assignment makes unsatisfiable for more than one independent reason, so
// RetrieveErrorMessage must report every cause.
func scenarioMultiCauseViolation(e *engine.Engine, logger logrus.FieldLogger) {
	assign(e.Vars, logger, "COMP_ATM", expr.StringVal("cam"))
	assign(e.Vars, logger, "COMP_OCN", expr.StringVal("mom"))
	assign(e.Vars, logger, "COMP_LND", expr.StringVal("slnd"))
	assign(e.Vars, logger, "COMP_ICE", expr.StringVal("sice"))
}

// scenarioCustomOceanGrid selects a global ocean grid, tries a
// non-reentrant OCN_CYCLIC_X (rejected), then assigns the values the
// global-grid relations accept.
func scenarioCustomOceanGrid(e *engine.Engine, logger logrus.FieldLogger) {
	assign(e.Vars, logger, "OCN_GRID_EXTENT", expr.StringVal("Global"))
	assign(e.Vars, logger, "OCN_CYCLIC_X", expr.BoolVal(false))
	assign(e.Vars, logger, "OCN_CYCLIC_X", expr.BoolVal(true))
	assign(e.Vars, logger, "OCN_LENX", expr.RealVal(360.0))
	assign(e.Vars, logger, "OCN_LENY", expr.RealVal(180.0))
}

// scenarioOptionValidityPropagation demonstrates that validities recompute
// across the layer graph on a related assignment, without the dependent
// variable itself ever being assigned.
func scenarioOptionValidityPropagation(e *engine.Engine, logger logrus.FieldLogger) {
	assign(e.Vars, logger, "COMP_ICE", expr.StringVal("sice"))
	if v, ok := e.Vars.Get("COMP_OCN"); ok {
		logger.Infof("COMP_OCN validities after COMP_ICE=sice: %+v", v.Validities())
	}
}
