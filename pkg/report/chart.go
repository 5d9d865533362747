package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/edp1096/toy-phasor/pkg/netlist"
	"github.com/edp1096/toy-phasor/pkg/util"
)

const (
	componentColor = "#c71979b7"
	nodeColor      = "#1987c7b7"
	referenceColor = "#000000de"
)

// Series is one set of node voltages, the total or a single-source partial.
type Series struct {
	Name     string
	Voltages map[string]complex128
}

func legendOpts() charts.GlobalOpts {
	return charts.WithLegendOpts(opts.Legend{
		Type:   "scroll",
		Orient: "vertical",
		Right:  "10",
		Top:    "20",
		Bottom: "20",
	})
}

func topologyGraph(nl *netlist.Netlist) *charts.Graph {
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Netlist",
			Subtitle: "Components and the electrical nodes they touch",
		}),
		legendOpts(),
	)

	nodes := make([]opts.GraphNode, 0, len(nl.Components)+len(nl.Nodes))
	links := make([]opts.GraphLink, 0, 2*len(nl.Components))
	for _, c := range nl.Components {
		nodes = append(nodes, opts.GraphNode{
			Name:      c.ID,
			Category:  0,
			ItemStyle: &opts.ItemStyle{Color: componentColor},
			Tooltip:   &opts.Tooltip{Show: opts.Bool(true)},
		})
	}
	for _, label := range nl.Nodes {
		node := opts.GraphNode{
			Name:      "Node(" + label + ")",
			Category:  1,
			ItemStyle: &opts.ItemStyle{Color: nodeColor},
			Tooltip:   &opts.Tooltip{Show: opts.Bool(true)},
		}
		if label == nl.Reference {
			node.ItemStyle = &opts.ItemStyle{Color: referenceColor}
		}
		nodes = append(nodes, node)
	}
	for _, c := range nl.Components {
		for _, label := range c.Terminals() {
			links = append(links, opts.GraphLink{Source: c.ID, Target: "Node(" + label + ")"})
		}
	}

	graph.AddSeries("netlist", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Categories: []*opts.GraphCategory{
				{Name: "component"},
				{Name: "node"},
			},
			Roam:               opts.Bool(true),
			Force:              &opts.GraphForce{Repulsion: 80},
			FocusNodeAdjacency: opts.Bool(true),
		}),
	)
	return graph
}

func voltageBar(title, subtitle string, axis []string, series []Series, value func(complex128) float64) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		legendOpts(),
	)
	bar.SetXAxis(axis)

	for _, s := range series {
		data := make([]opts.BarData, len(axis))
		for i, node := range axis {
			data[i] = opts.BarData{Value: value(s.Voltages[node])}
		}
		bar.AddSeries(s.Name, data)
	}
	return bar
}

// WriteChart renders an HTML page with the netlist graph and bar charts of
// node voltage magnitude and phase for each series.
func WriteChart(w io.Writer, nl *netlist.Netlist, series ...Series) error {
	axis := nl.Unknowns()

	magnitude := func(v complex128) float64 {
		m, _ := util.Polar(v)
		return m
	}
	phase := func(v complex128) float64 {
		_, deg := util.Polar(v)
		return deg
	}

	page := components.NewPage()
	page.PageTitle = nl.Title
	if page.PageTitle == "" {
		page.PageTitle = "Phasor analysis"
	}
	page.AddCharts(
		topologyGraph(nl),
		voltageBar("Node voltage magnitude", fmt.Sprintf("|V| at %s", util.FormatFrequency(nl.Frequency)), axis, series, magnitude),
		voltageBar("Node voltage phase", "angle in degrees", axis, series, phase),
	)
	return page.Render(w)
}

func SaveChart(path string, nl *netlist.Netlist, series ...Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := WriteChart(f, nl, series...); err != nil {
		return err
	}
	return f.Close()
}
