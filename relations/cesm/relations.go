package cesm

import (
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/expr"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/logic"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/variable"
)

func str(s string) expr.Value { return expr.StringVal(s) }

// Bundle returns the translated contents of relational_assertions.py (the
// eight unconditional invariants and eight when-clauses original_source
// registers against CIME's component Variables) plus the three
// custom-ocean-grid constraints spec.md's S5 scenario exercises, which have
// no original_source counterpart: custom_grid_widget.py only wires up
// ipywidgets and a reset callback, never asserting anything about
// OCN_CYCLIC_X/OCN_LENX/OCN_LENY.
//
// It matches the engine.RelationsBundle shape but does not use its
// argument: every Variable it names is expected to already be defined,
// typically via DefineVariables.
func Bundle(_ *variable.Registry) []logic.Relation {
	return []logic.Relation{
		{
			Expr: expr.Implies{
				Antecedent: expr.VarEq("COMP_ICE", str("sice")),
				Consequent: expr.And{Exprs: []expr.Expr{
					expr.VarEq("COMP_LND", str("slnd")),
					expr.VarEq("COMP_OCN", str("socn")),
					expr.VarEq("COMP_ROF", str("srof")),
					expr.VarEq("COMP_GLC", str("sglc")),
				}},
			},
			Message: "If COMP_ICE is stub, all other components must be stub (except for ATM).",
		},
		{
			Expr:    expr.Implies{Antecedent: expr.VarEq("COMP_OCN", str("mom")), Consequent: expr.VarNeq("COMP_WAV", str("dwav"))},
			Message: "MOM6 cannot be coupled with data wave component.",
		},
		{
			Expr:    expr.Implies{Antecedent: expr.VarEq("COMP_ATM", str("cam")), Consequent: expr.VarNeq("COMP_ICE", str("dice"))},
			Message: "CAM cannot be coupled with Data ICE.",
		},
		{
			Expr: expr.Implies{
				Antecedent: expr.VarEq("COMP_WAV", str("ww3")),
				Consequent: expr.In{Var: "COMP_OCN", Values: []expr.Value{str("mom"), str("pop")}},
			},
			Message: "WW3 can only be selected if either POP2 or MOM6 is the ocean component.",
		},
		{
			Expr: expr.Implies{
				Antecedent: expr.Or{Exprs: []expr.Expr{expr.VarEq("COMP_ROF", str("rtm")), expr.VarEq("COMP_ROF", str("mosart"))}},
				Consequent: expr.VarEq("COMP_LND", str("clm")),
			},
			Message: "Active runoff models can only be selected if CLM is the land component.",
		},
		{
			Expr: expr.Implies{
				Antecedent: expr.And{Exprs: []expr.Expr{
					expr.In{Var: "COMP_OCN", Values: []expr.Value{str("pop"), str("mom")}},
					expr.VarEq("COMP_ATM", str("datm")),
				}},
				Consequent: expr.VarEq("COMP_LND", str("slnd")),
			},
			Message: "When MOM|POP is forced with DATM, LND must be stub.",
		},
		{
			Expr: expr.Implies{
				Antecedent: expr.VarEq("COMP_OCN", str("mom")),
				Consequent: expr.Or{Exprs: []expr.Expr{expr.VarNeq("COMP_LND", str("slnd")), expr.VarNeq("COMP_ICE", str("sice"))}},
			},
			Message: "LND or ICE must be present to hide MOM6 grid poles.",
		},
		{
			Expr: expr.Implies{
				Antecedent: expr.And{Exprs: []expr.Expr{expr.VarEq("COMP_ATM", str("datm")), expr.VarEq("COMP_LND", str("clm"))}},
				Consequent: expr.And{Exprs: []expr.Expr{expr.VarEq("COMP_ICE", str("sice")), expr.VarEq("COMP_OCN", str("socn"))}},
			},
			Message: "If CLM is coupled with DATM, then both ICE and OCN must be stub.",
		},

		{
			Expr:    expr.When{Antecedent: expr.VarEq("COMP_OCN", str("docn")), Consequent: expr.VarNeq("COMP_OCN_OPTION", str(NoneOption))},
			Message: "Must pick a valid DOCN option.",
		},
		{
			Expr:    expr.When{Antecedent: expr.VarEq("COMP_ICE", str("dice")), Consequent: expr.VarNeq("COMP_ICE_OPTION", str(NoneOption))},
			Message: "Must pick a valid DICE option.",
		},
		{
			Expr:    expr.When{Antecedent: expr.VarEq("COMP_ATM", str("datm")), Consequent: expr.VarNeq("COMP_ATM_OPTION", str(NoneOption))},
			Message: "Must pick a valid DATM option.",
		},
		{
			Expr:    expr.When{Antecedent: expr.VarEq("COMP_ROF", str("drof")), Consequent: expr.VarNeq("COMP_ROF_OPTION", str(NoneOption))},
			Message: "Must pick a valid DROF option.",
		},
		{
			Expr:    expr.When{Antecedent: expr.VarEq("COMP_WAV", str("dwav")), Consequent: expr.VarNeq("COMP_WAV_OPTION", str(NoneOption))},
			Message: "Must pick a valid DWAV option.",
		},
		{
			Expr: expr.When{
				Antecedent: expr.In{Var: "COMP_LND", Values: []expr.Value{str("clm"), str("dlnd")}},
				Consequent: expr.VarNeq("COMP_LND_OPTION", str(NoneOption)),
			},
			Message: "Must pick a valid LND option.",
		},
		{
			Expr:    expr.When{Antecedent: expr.VarEq("COMP_GLC", str("cism")), Consequent: expr.VarNeq("COMP_GLC_OPTION", str(NoneOption))},
			Message: "Must pick a valid GLC option.",
		},
		{
			Expr: expr.When{
				Antecedent: expr.And{Exprs: []expr.Expr{expr.VarEq("COMP_ICE", str("cice")), expr.VarEq("COMP_OCN", str("docn"))}},
				Consequent: expr.VarEq("COMP_OCN_OPTION", str("SOM")),
			},
			Message: "When DOCN is coupled with CICE, DOCN option must be set to SOM.",
		},

		{
			Expr:    expr.When{Antecedent: expr.VarEq("OCN_GRID_EXTENT", str("Global")), Consequent: expr.VarEq("OCN_CYCLIC_X", expr.BoolVal(true))},
			Message: "A global ocean grid must be zonally reentrant.",
		},
		{
			Expr:    expr.When{Antecedent: expr.VarEq("OCN_GRID_EXTENT", str("Global")), Consequent: expr.VarEq("OCN_LENX", expr.RealVal(360.0))},
			Message: "A global ocean grid must span 360 degrees in the X direction.",
		},
		{
			Expr:    expr.When{Antecedent: expr.VarEq("OCN_GRID_EXTENT", str("Global")), Consequent: expr.VarEq("OCN_LENY", expr.RealVal(180.0))},
			Message: "A global ocean grid must span 180 degrees in the Y direction.",
		},
	}
}
