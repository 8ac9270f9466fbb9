package memddb

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	reEqual      = regexp.MustCompile(`^([#\w.]+)\s*=\s*(:\w+)$`)
	reBeginsWith = regexp.MustCompile(`^begins_with\s*\(\s*([#\w.]+)\s*,\s*(:\w+)\s*\)$`)
	reExists     = regexp.MustCompile(`^(attribute_exists|attribute_not_exists)\s*\(\s*([#\w.]+)\s*\)$`)
)

type operator int

const (
	opEqual operator = iota
	opBeginsWith
	opExists
	opNotExists
)

// clause is one comparison of a conjunctive condition, or one SET action.
type clause struct {
	op    operator
	path  []string
	value types.AttributeValue
}

// placeholders resolves #name and :value references.
type placeholders struct {
	names  map[string]string
	values map[string]types.AttributeValue
}

func (p placeholders) path(raw string) ([]string, error) {
	parts := strings.Split(raw, ".")
	for i, part := range parts {
		if !strings.HasPrefix(part, "#") {
			continue
		}
		name, ok := p.names[part]
		if !ok {
			return nil, validationError("undefined attribute name %s", part)
		}
		parts[i] = name
	}
	return parts, nil
}

func (p placeholders) value(raw string) (types.AttributeValue, error) {
	v, ok := p.values[raw]
	if !ok {
		return nil, validationError("undefined attribute value %s", raw)
	}
	return v, nil
}

// parseCondition parses a conjunction of equality, begins_with and
// attribute_(not_)exists comparisons. An empty expression matches everything.
func parseCondition(expr *string, p placeholders) ([]clause, error) {
	if expr == nil || strings.TrimSpace(*expr) == "" {
		return nil, nil
	}

	var clauses []clause
	for _, part := range strings.Split(*expr, " AND ") {
		c, err := parseComparison(unwrap(part), p)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

func parseComparison(s string, p placeholders) (clause, error) {
	if m := reEqual.FindStringSubmatch(s); m != nil {
		return resolve(opEqual, m[1], m[2], p)
	}
	if m := reBeginsWith.FindStringSubmatch(s); m != nil {
		return resolve(opBeginsWith, m[1], m[2], p)
	}
	if m := reExists.FindStringSubmatch(s); m != nil {
		path, err := p.path(m[2])
		if err != nil {
			return clause{}, err
		}
		op := opExists
		if m[1] == "attribute_not_exists" {
			op = opNotExists
		}
		return clause{op: op, path: path}, nil
	}
	return clause{}, validationError("unsupported expression %q", s)
}

func resolve(op operator, rawPath, rawValue string, p placeholders) (clause, error) {
	path, err := p.path(rawPath)
	if err != nil {
		return clause{}, err
	}
	value, err := p.value(rawValue)
	if err != nil {
		return clause{}, err
	}
	return clause{op: op, path: path, value: value}, nil
}

// unwrap strips the parentheses the expression builder puts around operands.
func unwrap(s string) string {
	s = strings.TrimLeft(strings.TrimSpace(s), "(")
	for strings.Count(s, ")") > strings.Count(s, "(") {
		s = strings.TrimSuffix(strings.TrimSpace(s), ")")
	}
	return strings.TrimSpace(s)
}

// parseUpdate parses a SET-only update expression.
func parseUpdate(expr *string, p placeholders) ([]clause, error) {
	if expr == nil {
		return nil, validationError("update expression is required")
	}
	s := strings.TrimSpace(*expr)
	if !strings.HasPrefix(strings.ToUpper(s), "SET ") {
		return nil, validationError("unsupported update expression %q", s)
	}

	var actions []clause
	for _, part := range strings.Split(s[len("SET "):], ",") {
		m := reEqual.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			return nil, validationError("unsupported update action %q", part)
		}
		c, err := resolve(opEqual, m[1], m[2], p)
		if err != nil {
			return nil, err
		}
		actions = append(actions, c)
	}
	return actions, nil
}

// parseProjection returns the top-level attributes named by a projection.
func parseProjection(expr *string, names map[string]string) ([]string, error) {
	if expr == nil || strings.TrimSpace(*expr) == "" {
		return nil, nil
	}
	p := placeholders{names: names}
	var attrs []string
	for _, part := range strings.Split(*expr, ",") {
		path, err := p.path(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, path[0])
	}
	return attrs, nil
}

func matchAll(item map[string]types.AttributeValue, clauses []clause) bool {
	for _, c := range clauses {
		if !c.match(item) {
			return false
		}
	}
	return true
}

func (c clause) match(item map[string]types.AttributeValue) bool {
	v, ok := lookup(item, c.path)
	switch c.op {
	case opExists:
		return ok
	case opNotExists:
		return !ok
	case opEqual:
		return ok && reflect.DeepEqual(v, c.value)
	case opBeginsWith:
		s, isStr := v.(*types.AttributeValueMemberS)
		prefix, prefixStr := c.value.(*types.AttributeValueMemberS)
		return ok && isStr && prefixStr && strings.HasPrefix(s.Value, prefix.Value)
	}
	return false
}

func lookup(item map[string]types.AttributeValue, path []string) (types.AttributeValue, bool) {
	var cur types.AttributeValue = &types.AttributeValueMemberM{Value: item}
	for _, name := range path {
		m, ok := cur.(*types.AttributeValueMemberM)
		if !ok {
			return nil, false
		}
		cur, ok = m.Value[name]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// assign sets the attribute at path. Intermediate maps must already exist.
func assign(item map[string]types.AttributeValue, path []string, v types.AttributeValue) error {
	if len(path) == 1 {
		item[path[0]] = copyValue(v)
		return nil
	}
	m, ok := item[path[0]].(*types.AttributeValueMemberM)
	if !ok {
		return validationError("the document path provided in the update expression is invalid for update")
	}
	return assign(m.Value, path[1:], v)
}

func project(item map[string]types.AttributeValue, attrs []string) map[string]types.AttributeValue {
	if attrs == nil {
		return copyItem(item)
	}
	out := make(map[string]types.AttributeValue, len(attrs))
	for _, a := range attrs {
		if v, ok := item[a]; ok {
			out[a] = copyValue(v)
		}
	}
	return out
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v types.AttributeValue) types.AttributeValue {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return &types.AttributeValueMemberS{Value: tv.Value}
	case *types.AttributeValueMemberN:
		return &types.AttributeValueMemberN{Value: tv.Value}
	case *types.AttributeValueMemberBOOL:
		return &types.AttributeValueMemberBOOL{Value: tv.Value}
	case *types.AttributeValueMemberNULL:
		return &types.AttributeValueMemberNULL{Value: tv.Value}
	case *types.AttributeValueMemberB:
		return &types.AttributeValueMemberB{Value: append([]byte(nil), tv.Value...)}
	case *types.AttributeValueMemberSS:
		return &types.AttributeValueMemberSS{Value: append([]string(nil), tv.Value...)}
	case *types.AttributeValueMemberNS:
		return &types.AttributeValueMemberNS{Value: append([]string(nil), tv.Value...)}
	case *types.AttributeValueMemberM:
		return &types.AttributeValueMemberM{Value: copyItem(tv.Value)}
	case *types.AttributeValueMemberL:
		l := make([]types.AttributeValue, len(tv.Value))
		for i, e := range tv.Value {
			l[i] = copyValue(e)
		}
		return &types.AttributeValueMemberL{Value: l}
	default:
		return v
	}
}
