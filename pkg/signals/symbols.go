package signals

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

const mainPrefix = "main."

// Symbol is one line of a compiled circuit symbol table:
// labelIdx,witnessIdx,componentIdx,main.name[i][j].
type Symbol struct {
	Label     int
	Witness   int
	Component int
	Name      string
	Indices   []int
}

// TopLevel reports whether the symbol belongs to the main component itself
// rather than a sub-component.
func (s Symbol) TopLevel() bool { return !strings.Contains(s.Name, ".") }

// ParseSymbols reads a symbol table. Entries of sub-components and entries
// removed by the optimiser (witness index -1) are kept; callers filter.
func ParseSymbols(r io.Reader) ([]Symbol, error) {
	var out []Symbol
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		parts := strings.SplitN(text, ",", 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("signals: symbol line %d: expected 4 columns", line)
		}
		var nums [3]int
		for i := 0; i < 3; i++ {
			n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil {
				return nil, fmt.Errorf("signals: symbol line %d: %w", line, err)
			}
			nums[i] = n
		}
		full := strings.TrimPrefix(strings.TrimSpace(parts[3]), mainPrefix)
		name, indices, err := splitIndices(full)
		if err != nil {
			return nil, fmt.Errorf("signals: symbol line %d: %w", line, err)
		}
		out = append(out, Symbol{Label: nums[0], Witness: nums[1], Component: nums[2], Name: name, Indices: indices})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("signals: read symbols: %w", err)
	}
	return out, nil
}

func splitIndices(full string) (string, []int, error) {
	open := strings.IndexByte(full, '[')
	if open < 0 {
		return full, nil, nil
	}
	var idx []int
	rest := full[open:]
	for rest != "" {
		end := strings.IndexByte(rest, ']')
		if rest[0] != '[' || end < 0 {
			return "", nil, reasoncodes.Newf(reasoncodes.UnknownSignal, full, "malformed index")
		}
		n, err := strconv.Atoi(rest[1:end])
		if err != nil || n < 0 {
			return "", nil, reasoncodes.Newf(reasoncodes.UnknownSignal, full, "invalid index %q", rest[1:end])
		}
		idx = append(idx, n)
		rest = rest[end+1:]
	}
	return full[:open], idx, nil
}

// CollapseSymbols groups element entries into signals in first-seen order.
// A symbol table lists element indices, so each dimension is max index + 1.
func CollapseSymbols(symbols []Symbol) ([]Signal, error) {
	var order []string
	dims := map[string][]int{}
	for _, s := range symbols {
		cur, seen := dims[s.Name]
		if !seen {
			order = append(order, s.Name)
			cur = make([]int, len(s.Indices))
		} else if len(cur) != len(s.Indices) {
			return nil, reasoncodes.Newf(reasoncodes.ShapeMismatch, s.Name, "inconsistent rank %d vs %d", len(cur), len(s.Indices))
		}
		for i, v := range s.Indices {
			if v+1 > cur[i] {
				cur[i] = v + 1
			}
		}
		dims[s.Name] = cur
	}

	out := make([]Signal, 0, len(order))
	for _, name := range order {
		d := dims[name]
		if len(d) == 0 {
			d = nil
		}
		out = append(out, Signal{Name: name, Dimensions: d})
	}
	return out, nil
}
