// Package solver turns one solve request into an ordered step log and a
// node voltage map. A request never returns partial results: on failure the
// log ends with an Error step and the maps are empty.
package solver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/edp1096/toy-phasor/pkg/analysis"
	"github.com/edp1096/toy-phasor/pkg/device"
	"github.com/edp1096/toy-phasor/pkg/netlist"
	"github.com/edp1096/toy-phasor/pkg/report"
	"github.com/edp1096/toy-phasor/pkg/schematic"
	"github.com/edp1096/toy-phasor/pkg/util"
)

const tracerName = "toy-phasor/solver"

type Result struct {
	RequestID uuid.UUID
	Method    analysis.Method
	Frequency float64
	Netlist   *netlist.Netlist // nil when extraction failed
	Steps     []report.Step
	Voltages  map[string]complex128 // by node label, reference included
	Currents  map[string]complex128 // by component id
	Partials  []analysis.Partial    // superposition only
}

// OK reports whether the request produced results.
func (r *Result) OK() bool {
	if len(r.Steps) == 0 {
		return false
	}
	return r.Steps[len(r.Steps)-1].Kind != report.Error
}

type request struct {
	cfg    Config
	result *Result
	log    report.Log
}

func newRequest(cfg Config) *request {
	if cfg.Method == "" {
		cfg.Method = analysis.Nodal
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = analysis.DefaultTolerance
	}

	return &request{
		cfg: cfg,
		result: &Result{
			RequestID: uuid.New(),
			Method:    cfg.Method,
			Voltages:  map[string]complex128{},
			Currents:  map[string]complex128{},
		},
	}
}

// fail ends the log with an Error step and drops any result.
func (r *request) fail(span trace.Span, err error) (*Result, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "solve failed")
	r.cfg.logf("[%s] error: %v", r.result.RequestID, err)

	r.log.Add(report.Error, "Error", err.Error())
	r.result.Steps = r.log.Steps()
	r.result.Voltages = map[string]complex128{}
	r.result.Currents = map[string]complex128{}
	r.result.Partials = nil
	return r.result, err
}

// SolveSchematic extracts the netlist of s and solves it.
func SolveSchematic(ctx context.Context, s *schematic.Schematic, cfg Config) (*Result, error) {
	if s == nil {
		return nil, errors.New("nil schematic")
	}
	r := newRequest(cfg)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "solver.SolveSchematic",
		trace.WithAttributes(
			attribute.String("request_id", r.result.RequestID.String()),
			attribute.Int("schematic_nodes", len(s.Nodes)),
			attribute.Int("schematic_wires", len(s.Wires)),
		),
	)
	defer span.End()

	r.result.Frequency = s.Frequency
	if err := ctx.Err(); err != nil {
		return r.fail(span, err)
	}

	r.cfg.logf("[%s] extracting netlist from %d nodes, %d wires", r.result.RequestID, len(s.Nodes), len(s.Wires))
	nl, err := netlist.Extract(s)
	if err != nil {
		return r.fail(span, err)
	}
	return r.solve(ctx, span, nl)
}

// SolveNetlist solves an already built netlist. nl is not modified.
func SolveNetlist(ctx context.Context, nl *netlist.Netlist, cfg Config) (*Result, error) {
	if nl == nil {
		return nil, errors.New("nil netlist")
	}
	r := newRequest(cfg)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "solver.SolveNetlist",
		trace.WithAttributes(attribute.String("request_id", r.result.RequestID.String())),
	)
	defer span.End()

	r.result.Frequency = nl.Frequency
	if err := ctx.Err(); err != nil {
		return r.fail(span, err)
	}
	return r.solve(ctx, span, nl)
}

func (r *request) solve(ctx context.Context, span trace.Span, nl *netlist.Netlist) (*Result, error) {
	nl = nl.Clone()
	if err := nl.EnsureReference(r.cfg.RequireGround); err != nil {
		return r.fail(span, err)
	}
	r.result.Netlist = nl

	span.SetAttributes(
		attribute.String("method", string(r.cfg.Method)),
		attribute.String("backend", string(r.cfg.Backend)),
		attribute.Float64("frequency_hz", nl.Frequency),
		attribute.Int("nodes", len(nl.Nodes)),
		attribute.Int("components", len(nl.Components)),
	)

	r.initialization(nl)
	r.describeNetlist(nl)

	an := analysis.New(r.cfg.Method, r.cfg.Backend)
	if sa, ok := an.(*analysis.SuperpositionAnalysis); ok {
		sa.Parallel = r.cfg.Parallel
		sa.Tolerance = r.cfg.Tolerance
		sa.Trace = r.cfg.Trace
	} else if na, ok := an.(*analysis.NodalAnalysis); ok {
		na.Trace = r.cfg.Trace
	}

	if err := an.Setup(nl); err != nil {
		return r.fail(span, err)
	}

	r.cfg.logf("[%s] running %s analysis (%d nodes, %d components)", r.result.RequestID, r.cfg.Method, len(nl.Nodes), len(nl.Components))
	err := r.execute(ctx, an)
	r.log.Extend(an.Steps())
	if err != nil {
		return r.fail(span, err)
	}

	sol := an.Solution()
	lines := make([]string, 0, len(sol.Nodes))
	for _, node := range sol.Nodes {
		if node == nl.Reference {
			continue
		}
		lines = append(lines, fmt.Sprintf("V_{%s} = %s", node, util.FormatPolar(sol.Voltages[node], "V")))
	}
	r.log.Add(report.Result, "Final Node Voltages", "", lines...)

	r.result.Voltages = sol.Voltages
	r.result.Currents = sol.Currents
	if sa, ok := an.(*analysis.SuperpositionAnalysis); ok {
		r.result.Partials = sa.Partials()
		if !sa.Matched() {
			r.cfg.logf("[%s] warning: superposition total differs from the sum of partials", r.result.RequestID)
		}
	}
	r.result.Steps = r.log.Steps()

	span.SetStatus(codes.Ok, "")
	r.cfg.logf("[%s] solved, %d steps", r.result.RequestID, len(r.result.Steps))
	return r.result, nil
}

func (r *request) execute(ctx context.Context, an analysis.Analysis) error {
	_, span := otel.Tracer(tracerName).Start(ctx, "analysis.Execute",
		trace.WithAttributes(attribute.String("method", string(r.cfg.Method))),
	)
	defer span.End()

	if err := an.Execute(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		return err
	}
	return nil
}

func (r *request) initialization(nl *netlist.Netlist) {
	desc := fmt.Sprintf("Frequency: %gHz. Found %d active nodes.", nl.Frequency, len(nl.Unknowns()))
	if nl.ImplicitReference {
		desc += fmt.Sprintf(" No ground found, node %s is the reference.", nl.Reference)
	}
	r.log.Add(report.Info, "Initialization", desc)
}

func (r *request) describeNetlist(nl *netlist.Netlist) {
	lines := make([]string, 0, len(nl.Components))
	for _, c := range nl.Components {
		switch {
		case c.Kind == device.OpAmp:
			lines = append(lines, fmt.Sprintf("%s (%s): +%s -%s out %s", c.ID, c.Kind, c.Pos, c.Neg, c.Out))
		case c.Kind.IsSource():
			lines = append(lines, fmt.Sprintf("%s (%s): %s -> %s, %s", c.ID, c.Kind, c.Pos, c.Neg,
				util.FormatPolar(device.Phasor(c.Value, c.Phase), c.Kind.Unit())))
		default:
			lines = append(lines, fmt.Sprintf("%s (%s): %s -> %s, %s", c.ID, c.Kind, c.Pos, c.Neg,
				strings.TrimSpace(util.FormatValueFactor(c.Value, c.Kind.Unit()))))
		}
	}
	r.log.Add(report.Info, "Netlist", "Components and the nodes they connect:", lines...)
}
