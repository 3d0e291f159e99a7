package template

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template/parse"
)

var (
	ErrForbiddenAction = errors.New("template contains forbidden action")
	ErrExcessiveDepth  = errors.New("template depth exceeds maximum allowed")
)

// Guard restricts the Go-template text allowed in stored host and url fields.
// Stored templates come from a shared document store, so only variable
// references and a few formatting functions are accepted.
type Guard struct {
	MaxDepth          int
	AllowedFunctions  map[string]bool
	ForbiddenPatterns []*regexp.Regexp
}

var defaultGuard = NewGuard()

// NewGuard returns a guard allowing field access plus printf, print, urlquery,
// and the comparison built-ins.
func NewGuard() *Guard {
	return &Guard{
		MaxDepth: 5,
		AllowedFunctions: map[string]bool{
			"printf":   true,
			"print":    true,
			"urlquery": true,
			"eq":       true,
			"ne":       true,
			"and":      true,
			"or":       true,
			"not":      true,
		},
		ForbiddenPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\.\./`),          // ../ path traversal
			regexp.MustCompile(`\$\{[^{][^}]*}`), // ${var} shell expansion
			regexp.MustCompile("`[^`]*`"),        // raw string literals
		},
	}
}

// Check parses s and rejects forbidden patterns, unknown functions, template
// inclusion and nesting deeper than MaxDepth.
func (g *Guard) Check(s string) error {
	for _, p := range g.ForbiddenPatterns {
		if p.MatchString(s) {
			return fmt.Errorf("%w: matched %q", ErrForbiddenAction, p.String())
		}
	}
	funcs := make(map[string]any, len(g.AllowedFunctions))
	for name, ok := range g.AllowedFunctions {
		if ok {
			funcs[name] = true
		}
	}
	trees, err := parse.Parse("guard", s, "{{", "}}", funcs)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}
	if len(trees) > 1 {
		return fmt.Errorf("%w: define blocks are not allowed", ErrForbiddenAction)
	}
	return g.checkList(trees["guard"].Root, 0)
}

func (g *Guard) checkList(list *parse.ListNode, depth int) error {
	if list == nil {
		return nil
	}
	if depth > g.MaxDepth {
		return ErrExcessiveDepth
	}
	for _, n := range list.Nodes {
		if err := g.checkNode(n, depth); err != nil {
			return err
		}
	}
	return nil
}

func (g *Guard) checkNode(node parse.Node, depth int) error {
	switch n := node.(type) {
	case *parse.ActionNode:
		return g.checkPipe(n.Pipe)
	case *parse.IfNode:
		return g.checkBranch(&n.BranchNode, depth)
	case *parse.WithNode:
		return g.checkBranch(&n.BranchNode, depth)
	case *parse.RangeNode:
		return g.checkBranch(&n.BranchNode, depth)
	case *parse.TemplateNode:
		return fmt.Errorf("%w: template inclusion %q", ErrForbiddenAction, n.Name)
	}
	return nil
}

func (g *Guard) checkBranch(b *parse.BranchNode, depth int) error {
	if err := g.checkPipe(b.Pipe); err != nil {
		return err
	}
	if err := g.checkList(b.List, depth+1); err != nil {
		return err
	}
	return g.checkList(b.ElseList, depth+1)
}

func (g *Guard) checkPipe(p *parse.PipeNode) error {
	if p == nil {
		return nil
	}
	for _, cmd := range p.Cmds {
		for _, arg := range cmd.Args {
			switch a := arg.(type) {
			case *parse.IdentifierNode:
				if !g.AllowedFunctions[a.Ident] {
					return fmt.Errorf("%w: function %q", ErrForbiddenAction, a.Ident)
				}
			case *parse.PipeNode:
				if err := g.checkPipe(a); err != nil {
					return err
				}
			case *parse.FieldNode:
				if err := checkFields(a.Ident); err != nil {
					return err
				}
			case *parse.ChainNode:
				if err := checkFields(a.Field); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// checkFields rejects method-looking field names; variables are plain strings.
func checkFields(fields []string) error {
	for _, f := range fields {
		lower := strings.ToLower(f)
		for _, bad := range []string{"exec", "cmd", "system", "eval"} {
			if strings.Contains(lower, bad) {
				return fmt.Errorf("%w: field %q", ErrForbiddenAction, f)
			}
		}
	}
	return nil
}
