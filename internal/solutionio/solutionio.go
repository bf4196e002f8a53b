// Package solutionio serializes a solved instance to the output file
// format and parses such a file back, so that round-trip checks can
// verify an emitted solution matches what re-parsing and recomputing
// produces.
package solutionio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mcarptif/internal/carp/model"
	"mcarptif/pkg/apperror"
)

// Timing carries the two wall-clock measurements the output header
// records alongside the solution itself.
type Timing struct {
	TotalExecutionMS int64
	APSPExecutionMS  int64
}

// WriteFile serializes solution to path in the format:
//
//	<total_cost>
//	<num_routes>
//	<total_execution_ms>
//	<apsp_execution_ms>
//	<route_1>
//	...
//
// Each route line is `0 1 <route_id> <demand> <cost> <num_visits> <visits...>`,
// with each visit rendered as `(D 0,<depot>,<depot>)` or
// `(S <service_id>,<from>,<to>)`.
func WriteFile(path string, solution *model.Solution, timing Timing) error {
	f, err := os.Create(path)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeIO, "failed to create solution file").WithField("path")
	}
	defer f.Close()

	if err := Write(f, solution, timing); err != nil {
		return err
	}
	return nil
}

// Write serializes solution to w; see WriteFile for the exact grammar.
func Write(w io.Writer, solution *model.Solution, timing Timing) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%d\n", solution.TotalCost())
	fmt.Fprintf(bw, "%d\n", len(solution.Routes))
	fmt.Fprintf(bw, "%d\n", timing.TotalExecutionMS)
	fmt.Fprintf(bw, "%d\n", timing.APSPExecutionMS)

	for _, r := range solution.Routes {
		writeRouteLine(bw, r)
	}

	if err := bw.Flush(); err != nil {
		return apperror.Wrap(err, apperror.CodeIO, "failed to write solution file")
	}
	return nil
}

func writeRouteLine(bw *bufio.Writer, r *model.Route) {
	fmt.Fprintf(bw, "0 1 %d %d %d %d", r.ID, r.Demand, r.Cost, len(r.Visits))
	for _, v := range r.Visits {
		if v.IsDepot {
			fmt.Fprintf(bw, " (D 0,%d,%d)", v.From, v.To)
		} else {
			fmt.Fprintf(bw, " (S %d,%d,%d)", v.ServiceID, v.From, v.To)
		}
	}
	bw.WriteString("\n")
}

// Parsed is a solution file re-parsed back into structured form.
type Parsed struct {
	TotalCost int64
	Timing    Timing
	Routes    []*model.Route
}

// ParseFile reads and parses a solution file written by WriteFile.
func ParseFile(path string) (*Parsed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeIO, "failed to open solution file").WithField("path")
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a solution file from r and reconstructs its routes. A
// missing or non-integer header line is an error; any route line that
// does not match the expected grammar is skipped. What Write emits, Parse
// can always read back.
func Parse(r io.Reader) (*Parsed, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	header := make([]int64, 0, 4)
	for len(header) < 4 && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		v, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeIO, "malformed solution header line")
		}
		header = append(header, v)
	}
	if len(header) < 4 {
		return nil, apperror.New(apperror.CodeIO, "solution file header is incomplete")
	}

	parsed := &Parsed{
		TotalCost: header[0],
		Timing:    Timing{TotalExecutionMS: header[2], APSPExecutionMS: header[3]},
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		route, ok := parseRouteLine(line)
		if ok {
			parsed.Routes = append(parsed.Routes, route)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeIO, "failed reading solution file")
	}

	return parsed, nil
}

// parseRouteLine parses one `0 1 <id> <demand> <cost> <num_visits> <visits...>`
// line into a Route.
func parseRouteLine(line string) (*model.Route, bool) {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return nil, false
	}
	if fields[0] != "0" || fields[1] != "1" {
		return nil, false
	}

	id, ok1 := parseInt(fields[2])
	demand, ok2 := parseInt(fields[3])
	cost, ok3 := parseInt(fields[4])
	numVisits, ok4 := parseInt(fields[5])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, false
	}

	visitTokens := strings.Join(fields[6:], " ")
	visits, ok := parseVisitTokens(visitTokens)
	if !ok || int64(len(visits)) != numVisits {
		return nil, false
	}

	return &model.Route{ID: id, Demand: demand, Cost: cost, Visits: visits}, true
}

// parseVisitTokens parses a space-separated run of `(D 0,<d>,<d>)` and
// `(S <id>,<from>,<to>)` tokens.
func parseVisitTokens(s string) ([]model.Visit, bool) {
	var visits []model.Visit
	for _, raw := range splitVisitTokens(s) {
		v, ok := parseOneVisit(raw)
		if !ok {
			return nil, false
		}
		visits = append(visits, v)
	}
	return visits, true
}

// splitVisitTokens splits "(D 0,1,1) (S 2,1,3)" into its parenthesized
// tokens, tolerating the single-space separator the writer uses.
func splitVisitTokens(s string) []string {
	var tokens []string
	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '(':
			if depth == 0 {
				start = i
			}
			depth++
		case ')':
			depth--
			if depth == 0 && start >= 0 {
				tokens = append(tokens, s[start:i+1])
				start = -1
			}
		}
	}
	return tokens
}

func parseOneVisit(tok string) (model.Visit, bool) {
	tok = strings.TrimPrefix(tok, "(")
	tok = strings.TrimSuffix(tok, ")")
	parts := strings.SplitN(tok, " ", 2)
	if len(parts) != 2 {
		return model.Visit{}, false
	}
	kind, rest := parts[0], parts[1]

	nums := strings.Split(rest, ",")
	if len(nums) != 3 {
		return model.Visit{}, false
	}
	id, ok1 := parseInt(nums[0])
	from, ok2 := parseInt(nums[1])
	to, ok3 := parseInt(nums[2])
	if !ok1 || !ok2 || !ok3 {
		return model.Visit{}, false
	}

	switch kind {
	case "D":
		return model.Visit{IsDepot: true, From: from, To: to}, true
	case "S":
		return model.Visit{ServiceID: id, From: from, To: to}, true
	default:
		return model.Visit{}, false
	}
}

func parseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
