package model

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the YAML (or JSON) form of a model.
type Document struct {
	Version     string     `yaml:"version"`
	Definitions MemberList `yaml:"definitions"`
}

// MemberDoc describes a definition or an element.
type MemberDoc struct {
	Kind        string          `yaml:"kind"`
	Type        string          `yaml:"type"`
	Length      *int            `yaml:"length"`
	Precision   *int            `yaml:"precision"`
	Scale       *int            `yaml:"scale"`
	Enum        []string        `yaml:"enum"`
	Default     *ExprNode       `yaml:"default"`
	Elements    MemberList      `yaml:"elements"`
	Params      MemberList      `yaml:"params"`
	Items       *MemberDoc      `yaml:"items"`
	Target      string          `yaml:"target"`
	On          *ExprNode       `yaml:"on"`
	Keys        []KeyDoc        `yaml:"keys"`
	Cardinality *CardinalityDoc `yaml:"cardinality"`
	Key         bool            `yaml:"key"`
	Virtual     bool            `yaml:"virtual"`
	Value       *ExprNode       `yaml:"value"`
	Stored      bool            `yaml:"stored"`
	Query       *QueryDoc       `yaml:"query"`
}

// NamedMember pairs a member document with its name.
type NamedMember struct {
	Name string
	Doc  MemberDoc
}

// MemberList is a YAML mapping decoded in document order.
type MemberList []NamedMember

// CardinalityDoc is the YAML form of Cardinality.
type CardinalityDoc struct {
	Src string `yaml:"src"`
	Min int    `yaml:"min"`
	Max string `yaml:"max"`
}

// KeyDoc is a foreign key: either "addr.city" or {ref: addr.city, as: city}.
type KeyDoc struct {
	Ref string `yaml:"ref"`
	As  string `yaml:"as"`
}

// QueryDoc is the YAML form of Query.
type QueryDoc struct {
	From    string      `yaml:"from"`
	Alias   string      `yaml:"alias"`
	Columns []ColumnDoc `yaml:"columns"`
	Where   *ExprNode   `yaml:"where"`
	Having  *ExprNode   `yaml:"having"`
	GroupBy []ExprNode  `yaml:"groupBy"`
	OrderBy []ExprNode  `yaml:"orderBy"`
}

// ColumnDoc is either "*", a dotted reference, or a mapping.
type ColumnDoc struct {
	Ref        *PathNode `yaml:"ref"`
	Expr       *ExprNode `yaml:"expr"`
	As         string    `yaml:"as"`
	Redirected string    `yaml:"redirected"`
	Filter     *ExprNode `yaml:"filter"`
	On         *ExprNode `yaml:"on"`
	Keys       []KeyDoc  `yaml:"keys"`
	Star       bool      `yaml:"-"`
}

// ExprNode decodes an expression.
type ExprNode struct {
	Expr *Expr
}

// PathNode decodes a reference given as "a.b.c" or as a list of steps.
type PathNode struct {
	Path *Path
}

// --- MemberList YAML methods ---

// UnmarshalYAML keeps the mapping order of definitions and elements.
func (l *MemberList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected mapping of members, got %v", node.Line, node.Kind)
	}

	out := make(MemberList, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}

		var doc MemberDoc
		if err := node.Content[i+1].Decode(&doc); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		out = append(out, NamedMember{Name: name, Doc: doc})
	}

	*l = out

	return nil
}

// --- KeyDoc YAML methods ---

// UnmarshalYAML accepts a scalar reference or a {ref, as} mapping.
func (k *KeyDoc) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&k.Ref)

	case yaml.MappingNode:
		type plain KeyDoc

		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}

		*k = KeyDoc(p)

		return nil

	default:
		return fmt.Errorf("line %d: expected key reference, got %v", node.Line, node.Kind)
	}
}

// --- ColumnDoc YAML methods ---

// UnmarshalYAML accepts "*", a dotted reference, or a column mapping.
func (c *ColumnDoc) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "*" {
			c.Star = true
			return nil
		}

		p, err := ParsePath(node.Value)
		if err != nil {
			return err
		}

		c.Ref = &PathNode{Path: p}

		return nil

	case yaml.MappingNode:
		type plain ColumnDoc

		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}

		*c = ColumnDoc(p)

		return nil

	default:
		return fmt.Errorf("line %d: expected column, got %v", node.Line, node.Kind)
	}
}

// --- PathNode YAML methods ---

// UnmarshalYAML accepts "a.b" or [a, {id: b, filter: ..., args: {...}}].
func (p *PathNode) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		path, err := ParsePath(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}

		p.Path = path

		return nil

	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return fmt.Errorf("line %d: empty path", node.Line)
		}

		path := &Path{}

		for _, item := range node.Content {
			step, err := decodeStep(item)
			if err != nil {
				return err
			}

			path.Steps = append(path.Steps, step)
		}

		path.Scope = ScopeOf(path.Steps[0].ID)
		p.Path = path

		return nil

	default:
		return fmt.Errorf("line %d: expected path, got %v", node.Line, node.Kind)
	}
}

func decodeStep(node *yaml.Node) (Step, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return Step{ID: node.Value}, nil

	case yaml.MappingNode:
		var raw struct {
			ID     string              `yaml:"id"`
			Filter *ExprNode           `yaml:"filter"`
			Args   map[string]ExprNode `yaml:"args"`
		}

		if err := node.Decode(&raw); err != nil {
			return Step{}, err
		}

		if raw.ID == "" {
			return Step{}, fmt.Errorf("line %d: path step without id", node.Line)
		}

		step := Step{ID: raw.ID}
		if raw.Filter != nil {
			step.Filter = raw.Filter.Expr
		}

		if raw.Args != nil {
			step.Args = make(map[string]*Expr, len(raw.Args))
			for name, arg := range raw.Args {
				step.Args[name] = arg.Expr
			}
		}

		return step, nil

	default:
		return Step{}, fmt.Errorf("line %d: expected path step, got %v", node.Line, node.Kind)
	}
}

// --- ExprNode YAML methods ---

// UnmarshalYAML decodes the expression notation: plain scalars are
// references, quoted scalars strings, and single-key maps operators.
func (e *ExprNode) UnmarshalYAML(node *yaml.Node) error {
	expr, err := decodeExpr(node)
	if err != nil {
		return err
	}

	e.Expr = expr

	return nil
}

func decodeExpr(node *yaml.Node) (*Expr, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return decodeScalar(node)

	case yaml.MappingNode:
		return decodeOperator(node)

	default:
		return nil, fmt.Errorf("line %d: expected expression, got %v", node.Line, node.Kind)
	}
}

func decodeScalar(node *yaml.Node) (*Expr, error) {
	switch node.Tag {
	case "!!null":
		return NullExpr(), nil

	case "!!int":
		var v int
		if err := node.Decode(&v); err != nil {
			return nil, err
		}

		return ValueExpr(v), nil

	case "!!float":
		var v float64
		if err := node.Decode(&v); err != nil {
			return nil, err
		}

		return ValueExpr(v), nil

	case "!!bool":
		var v bool
		if err := node.Decode(&v); err != nil {
			return nil, err
		}

		return ValueExpr(v), nil
	}

	if node.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0 {
		return ValueExpr(node.Value), nil
	}

	p, err := ParsePath(node.Value)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}

	return RefExpr(p), nil
}

func decodeOperator(node *yaml.Node) (*Expr, error) {
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fields[node.Content[i].Value] = node.Content[i+1]
	}

	if ref, ok := fields["ref"]; ok {
		return decodeRef(ref, fields)
	}

	if val, ok := fields["val"]; ok {
		var v any
		if err := val.Decode(&v); err != nil {
			return nil, err
		}

		return ValueExpr(v), nil
	}

	if fn, ok := fields["func"]; ok {
		args, err := decodeList(fields["args"])
		if err != nil {
			return nil, err
		}

		return &Expr{Kind: ExprFunc, Op: fn.Value, Args: args}, nil
	}

	if len(fields) != 1 {
		return nil, fmt.Errorf("line %d: operator expression must have exactly one key", node.Line)
	}

	op := node.Content[0].Value
	operand := node.Content[1]

	switch {
	case IsCompareOp(op):
		args, err := decodeList(operand)
		if err != nil {
			return nil, err
		}

		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: %q expects two operands, got %d", node.Line, op, len(args))
		}

		return Compare(op, args[0], args[1]), nil

	case op == "and" || op == "or":
		args, err := decodeList(operand)
		if err != nil {
			return nil, err
		}

		if len(args) == 0 {
			return nil, fmt.Errorf("line %d: %q expects operands", node.Line, op)
		}

		if op == "and" {
			return &Expr{Kind: ExprAnd, Args: args}, nil
		}

		return &Expr{Kind: ExprOr, Args: args}, nil

	case op == "not" || op == "is null" || op == "is not null":
		arg, err := decodeExpr(operand)
		if err != nil {
			return nil, err
		}

		kind := map[string]ExprKind{"not": ExprNot, "is null": ExprIsNull, "is not null": ExprIsNotNull}[op]

		return &Expr{Kind: kind, Args: []*Expr{arg}}, nil

	default:
		return nil, fmt.Errorf("line %d: unknown operator %q", node.Line, op)
	}
}

func decodeRef(ref *yaml.Node, fields map[string]*yaml.Node) (*Expr, error) {
	var pn PathNode
	if err := pn.UnmarshalYAML(ref); err != nil {
		return nil, err
	}

	last := &pn.Path.Steps[len(pn.Path.Steps)-1]

	if f, ok := fields["filter"]; ok {
		filter, err := decodeExpr(f)
		if err != nil {
			return nil, err
		}

		last.Filter = filter
	}

	if a, ok := fields["args"]; ok {
		if a.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: args must be a mapping", a.Line)
		}

		last.Args = make(map[string]*Expr, len(a.Content)/2)

		for i := 0; i+1 < len(a.Content); i += 2 {
			arg, err := decodeExpr(a.Content[i+1])
			if err != nil {
				return nil, err
			}

			last.Args[a.Content[i].Value] = arg
		}
	}

	return RefExpr(pn.Path), nil
}

func decodeList(node *yaml.Node) ([]*Expr, error) {
	if node == nil {
		return nil, nil
	}

	if node.Kind != yaml.SequenceNode {
		return nil, errors.New("expected a list of expressions")
	}

	out := make([]*Expr, 0, len(node.Content))

	for _, item := range node.Content {
		e, err := decodeExpr(item)
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, nil
}
