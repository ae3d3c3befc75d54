// Package session resolves session expressions against exchange calendars
// into concrete UTC time windows. The expression grammar is
// name | name_edge_minutes, where name is one of allday, day, am, pm, pre,
// post, edge is open or close, and minutes is a positive integer.
package session

import (
	"fmt"
	"strconv"
	"strings"
)

// Edge identifies which boundary a composite expression slices from.
type Edge string

const (
	// EdgeOpen anchors the slice at the session start
	EdgeOpen Edge = "open"
	// EdgeClose anchors the slice at the session end
	EdgeClose Edge = "close"
)

// sessionNames is the fixed vocabulary of base session names.
var sessionNames = map[string]bool{
	"allday": true,
	"day":    true,
	"am":     true,
	"pm":     true,
	"pre":    true,
	"post":   true,
}

// Expr is a parsed session expression. Minutes zero means the whole base
// session; otherwise the expression slices Minutes minutes from the Edge.
type Expr struct {
	Base    string
	Edge    Edge
	Minutes int
}

// ParseExpr parses a session expression. A bare name yields a whole-session
// expression; "base_edge_minutes" yields a composite slice. Unknown base
// names, unknown edges and non-positive minute counts are caller mistakes
// and return errors, distinct from an instrument that simply lacks the
// session.
func ParseExpr(expr string) (Expr, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Expr{}, fmt.Errorf("empty session expression")
	}

	if sessionNames[expr] {
		return Expr{Base: expr}, nil
	}

	parts := strings.Split(expr, "_")
	if len(parts) != 3 {
		return Expr{}, fmt.Errorf("invalid session expression %q: want name or name_edge_minutes", expr)
	}
	base, edge, minStr := parts[0], parts[1], parts[2]
	if !sessionNames[base] {
		return Expr{}, fmt.Errorf("invalid session expression %q: unknown session name %q", expr, base)
	}
	if edge != string(EdgeOpen) && edge != string(EdgeClose) {
		return Expr{}, fmt.Errorf("invalid session expression %q: edge must be open or close", expr)
	}
	minutes, err := strconv.Atoi(minStr)
	if err != nil || minutes <= 0 {
		return Expr{}, fmt.Errorf("invalid session expression %q: minutes must be a positive integer", expr)
	}
	return Expr{Base: base, Edge: Edge(edge), Minutes: minutes}, nil
}
