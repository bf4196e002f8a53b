// Package instance parses the line-oriented, whitespace-significant .dat
// instance format into raw entity lists. The parser is permissive by
// design: a malformed data row is skipped rather than rejected, mirroring
// the reference reader it is grounded on.
package instance

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"mcarptif/pkg/apperror"
)

// RawNode is one unparsed required-node row: name demand service_cost.
type RawNode struct {
	Name        string
	Demand      int64
	ServiceCost int64
}

// RawEdge is one unparsed required-edge row.
type RawEdge struct {
	Label         string
	From          int64
	To            int64
	TraversalCost int64
	Demand        int64
	ServiceCost   int64
}

// RawArc is one unparsed required-arc row. Same shape as RawEdge; kept as
// a distinct type because the two are never interchangeable downstream.
type RawArc struct {
	Label         string
	From          int64
	To            int64
	TraversalCost int64
	Demand        int64
	ServiceCost   int64
}

// RawOptionalEdge is a non-required edge row: label from to traversal_cost.
type RawOptionalEdge struct {
	Label         string
	From          int64
	To            int64
	TraversalCost int64
}

// RawOptionalArc is a non-required arc row: label from to traversal_cost.
type RawOptionalArc struct {
	Label         string
	From          int64
	To            int64
	TraversalCost int64
}

// Instance is the full set of raw entity lists parsed from one .dat file,
// plus the header key/value pairs.
type Instance struct {
	Meta          map[string]string
	RequiredNodes []RawNode
	RequiredEdges []RawEdge
	RequiredArcs  []RawArc
	OptionalEdges []RawOptionalEdge
	OptionalArcs  []RawOptionalArc
}

// section tags which required/optional block a data row belongs to.
type section int

const (
	sectionMeta section = iota
	sectionReqNode
	sectionReqEdge
	sectionReqArc
	sectionOptEdge
	sectionOptArc
)

// ParseFile opens path and parses it as a .dat instance. I/O failures
// (file missing, unreadable) are fatal and returned as *apperror.Error
// with apperror.CodeIO; malformed data rows are skipped silently.
func ParseFile(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeIO, "failed to open instance file").WithField("path")
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a .dat instance from r.
func Parse(r io.Reader) (*Instance, error) {
	inst := &Instance{Meta: make(map[string]string)}
	cur := sectionMeta

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if newSection, ok := sectionMarker(line); ok {
			cur = newSection
			continue
		}

		parts := strings.Fields(line)

		switch cur {
		case sectionMeta:
			parseMetaLine(inst.Meta, line)
		case sectionReqNode:
			if n, ok := parseRequiredNode(parts); ok {
				inst.RequiredNodes = append(inst.RequiredNodes, n)
			}
		case sectionReqEdge:
			if e, ok := parseRequiredEdge(parts); ok {
				inst.RequiredEdges = append(inst.RequiredEdges, e)
			}
		case sectionReqArc:
			if a, ok := parseRequiredArc(parts); ok {
				inst.RequiredArcs = append(inst.RequiredArcs, a)
			}
		case sectionOptEdge:
			if e, ok := parseOptionalEdge(parts); ok {
				inst.OptionalEdges = append(inst.OptionalEdges, e)
			}
		case sectionOptArc:
			if a, ok := parseOptionalArc(parts); ok {
				inst.OptionalArcs = append(inst.OptionalArcs, a)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeIO, "failed reading instance file")
	}

	return inst, nil
}

// sectionMarker reports the section a line switches to, if it is a
// marker line. "EDGE" only switches to the optional-edge section when the
// line does not also mention "ReE." (avoids confusing the two headers,
// matching the reference reader's guard).
func sectionMarker(line string) (section, bool) {
	first := strings.Fields(line)[0]

	switch {
	case strings.HasPrefix(first, "ReN."):
		return sectionReqNode, true
	case strings.HasPrefix(first, "ReE."):
		return sectionReqEdge, true
	case strings.HasPrefix(first, "ReA."):
		return sectionReqArc, true
	case strings.HasPrefix(first, "ARC"):
		return sectionOptArc, true
	case strings.HasPrefix(first, "EDGE"):
		if strings.Contains(line, "ReE.") {
			return 0, false
		}
		return sectionOptEdge, true
	default:
		return 0, false
	}
}

func parseMetaLine(meta map[string]string, line string) {
	if !strings.Contains(line, ":") {
		return
	}
	idx := strings.Index(line, ":")
	key := strings.TrimSpace(line[:idx])
	value := strings.TrimSpace(line[idx+1:])
	meta[key] = value
}

func parseRequiredNode(parts []string) (RawNode, bool) {
	if len(parts) < 3 {
		return RawNode{}, false
	}
	demand, ok1 := parseInt(parts[1])
	cost, ok2 := parseInt(parts[2])
	if !ok1 || !ok2 {
		return RawNode{}, false
	}
	return RawNode{Name: parts[0], Demand: demand, ServiceCost: cost}, true
}

func parseRequiredEdge(parts []string) (RawEdge, bool) {
	if len(parts) < 6 {
		return RawEdge{}, false
	}
	from, ok1 := parseInt(parts[1])
	to, ok2 := parseInt(parts[2])
	trav, ok3 := parseInt(parts[3])
	demand, ok4 := parseInt(parts[4])
	cost, ok5 := parseInt(parts[5])
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return RawEdge{}, false
	}
	return RawEdge{Label: parts[0], From: from, To: to, TraversalCost: trav, Demand: demand, ServiceCost: cost}, true
}

func parseRequiredArc(parts []string) (RawArc, bool) {
	if len(parts) < 6 {
		return RawArc{}, false
	}
	from, ok1 := parseInt(parts[1])
	to, ok2 := parseInt(parts[2])
	trav, ok3 := parseInt(parts[3])
	demand, ok4 := parseInt(parts[4])
	cost, ok5 := parseInt(parts[5])
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return RawArc{}, false
	}
	return RawArc{Label: parts[0], From: from, To: to, TraversalCost: trav, Demand: demand, ServiceCost: cost}, true
}

func parseOptionalEdge(parts []string) (RawOptionalEdge, bool) {
	if len(parts) < 4 {
		return RawOptionalEdge{}, false
	}
	from, ok1 := parseInt(parts[1])
	to, ok2 := parseInt(parts[2])
	trav, ok3 := parseInt(parts[3])
	if !ok1 || !ok2 || !ok3 {
		return RawOptionalEdge{}, false
	}
	return RawOptionalEdge{Label: parts[0], From: from, To: to, TraversalCost: trav}, true
}

func parseOptionalArc(parts []string) (RawOptionalArc, bool) {
	if len(parts) < 4 {
		return RawOptionalArc{}, false
	}
	from, ok1 := parseInt(parts[1])
	to, ok2 := parseInt(parts[2])
	trav, ok3 := parseInt(parts[3])
	if !ok1 || !ok2 || !ok3 {
		return RawOptionalArc{}, false
	}
	return RawOptionalArc{Label: parts[0], From: from, To: to, TraversalCost: trav}, true
}

func parseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
