package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// stdout is where results are written; tests replace it.
var stdout io.Writer = os.Stdout

// formatGraphText formats a CLIGraph as a node table followed by an
// indented dependency tree from each root.
func formatGraphText(w io.Writer, g CLIGraph) {
	if g.Name != "" {
		fmt.Fprintf(w, "Graph: %s\n", g.Name)
	}
	if g.Hash != "" {
		fmt.Fprintf(w, "Hash: %s\n", g.Hash)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tTYPE\tDETAIL\tCONTEXT")
	for _, n := range g.Nodes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", n.ID, n.Kind, n.Type, nodeDetail(n), n.Context)
	}
	tw.Flush()

	children := make(map[int][]CLIEdge)
	for _, e := range g.Edges {
		children[e.From] = append(children[e.From], e)
	}
	byID := make(map[int]CLINode, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}
	fmt.Fprintln(w)
	for _, r := range g.Roots {
		printTree(w, byID, children, r, "", 0)
	}
}

func printTree(w io.Writer, nodes map[int]CLINode, children map[int][]CLIEdge, id int, point string, depth int) {
	n := nodes[id]
	label := fmt.Sprintf("%s #%d %s", n.Type, n.ID, n.Kind)
	if point != "" {
		label = point + " -> " + label
	}
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), label)
	for _, e := range children[id] {
		printTree(w, nodes, children, e.To, e.Point, depth+1)
	}
}

func nodeDetail(n CLINode) string {
	var parts []string
	if n.Qualifier != "" {
		parts = append(parts, n.Qualifier)
	}
	if n.Provider != "" {
		parts = append(parts, "via "+n.Provider)
	}
	if n.Instance != "" {
		parts = append(parts, "= "+n.Instance)
	}
	return strings.Join(parts, " ")
}

// formatSummariesText formats stored graph listings as aligned columns.
func formatSummariesText(w io.Writer, sums []CLIGraphSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNODES\tEDGES\tCREATED\tHASH")
	for _, s := range sums {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\n",
			s.ID, s.Name, s.NodeCount, s.EdgeCount, s.CreatedAt.Format("2006-01-02 15:04:05"), shortHash(s.Hash))
	}
	tw.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// formatGraphDot renders a CLIGraph in Graphviz dot syntax.
func formatGraphDot(w io.Writer, g CLIGraph) {
	name := g.Name
	if name == "" {
		name = "grapht"
	}
	fmt.Fprintf(w, "digraph %s {\n", strconv.Quote(name))
	fmt.Fprintln(w, "  node [shape=box];")
	for _, n := range g.Nodes {
		label := n.Type
		if d := nodeDetail(n); d != "" {
			label += "\\n" + d
		}
		shape := ""
		if n.Kind == "null" {
			shape = ", style=dashed"
		}
		fmt.Fprintf(w, "  n%d [label=%s%s];\n", n.ID, dotQuote(label), shape)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(w, "  n%d -> n%d [label=%s];\n", e.From, e.To, dotQuote(e.Point))
	}
	fmt.Fprintln(w, "}")
}

// dotQuote quotes s for a dot attribute, keeping \n escapes intact.
func dotQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// outputResult writes a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	switch flagFormat {
	case "text":
		return outputResultText(result)
	case "dot":
		g, ok := result.Results.(CLIGraph)
		if !ok {
			return fmt.Errorf("dot format is only available for graphs, not %T", result.Results)
		}
		formatGraphDot(stdout, g)
		return nil
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIGraph:
		formatGraphText(stdout, v)
	case []CLIGraphSummary:
		formatSummariesText(stdout, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. Otherwise it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat != "json" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text", "dot"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be one of %s", format, strings.Join(validFormats, ", "))
}
