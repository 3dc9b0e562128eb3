package dot

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Plain is the part of Graphviz "plain" output the engine needs.
// Lengths are in inches with the origin at the bottom left.
type Plain struct {
	Scale  float64
	Width  float64
	Height float64
	Nodes  []PlainNode
}

// PlainNode is a laid-out node: centre and size.
type PlainNode struct {
	Name   string
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// TopLeft returns n's top-left corner in pixels with y pointing down.
func (p *Plain) TopLeft(n PlainNode) (x, y float64) {
	x = (n.X - n.Width/2) * PointsPerInch
	y = (p.Height - n.Y - n.Height/2) * PointsPerInch
	return x, y
}

// ParsePlain reads Graphviz plain output. Edge lines are ignored.
func ParsePlain(r io.Reader) (*Plain, error) {
	var (
		p       Plain
		hasHead bool
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields, err := splitPlain(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("plain line %d: %w", line, err)
		}
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			nums, err := floats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("plain line %d: graph: %w", line, err)
			}
			p.Scale, p.Width, p.Height = nums[0], nums[1], nums[2]
			hasHead = true
		case "node":
			if len(fields) < 6 {
				return nil, fmt.Errorf("plain line %d: node: want at least 6 fields, got %d", line, len(fields))
			}
			nums, err := floats(fields[2:], 4)
			if err != nil {
				return nil, fmt.Errorf("plain line %d: node %s: %w", line, fields[1], err)
			}
			p.Nodes = append(p.Nodes, PlainNode{
				Name:   fields[1],
				X:      nums[0],
				Y:      nums[1],
				Width:  nums[2],
				Height: nums[3],
			})
		case "stop":
			if !hasHead {
				return nil, fmt.Errorf("plain: missing graph line")
			}
			return &p, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !hasHead {
		return nil, fmt.Errorf("plain: missing graph line")
	}
	return &p, nil
}

func floats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d numbers, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := range n {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", fields[i])
		}
		out[i] = v
	}
	return out, nil
}

// splitPlain splits a plain-format line on blanks. Double-quoted fields may
// contain blanks and backslash escapes; the quotes are removed.
func splitPlain(s string) ([]string, error) {
	var (
		fields []string
		cur    strings.Builder
		inTok  bool
		quoted bool
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quoted:
			switch ch {
			case '\\':
				if i+1 < len(s) {
					i++
					if s[i] != '"' && s[i] != '\\' {
						cur.WriteByte('\\')
					}
					cur.WriteByte(s[i])
				}
			case '"':
				quoted = false
			default:
				cur.WriteByte(ch)
			}
		case ch == '"':
			quoted, inTok = true, true
		case ch == ' ' || ch == '\t' || ch == '\r':
			if inTok {
				fields = append(fields, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			cur.WriteByte(ch)
			inTok = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inTok {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
