package pattern

import (
	"strings"
)

// DecoratorKind tags a primitive qualifier with the family it belongs to.
type DecoratorKind uint8

const (
	KindUnknown DecoratorKind = iota

	// Atom primitives.
	KindAtomicNumber      // #<n>
	KindWildcard          // *
	KindAromatic          // a
	KindAliphatic         // A
	KindDegree            // D<n>
	KindTotalHydrogens    // H<n>
	KindImplicitHydrogens // h<n>
	KindConnectivity      // X<n>
	KindRingBondCount     // x<n>
	KindRingSize          // r<n>
	KindRingMembership    // R<n>
	KindValence           // v<n>, V<n>
	KindCharge            // +, -, +<n>, ++
	KindChirality         // @, @@, @<n>
	KindHybridization     // ^<n>
	KindRecursive         // $(...)

	// Bond primitives.
	KindSingleBond      // -
	KindDoubleBond      // =
	KindTripleBond      // #
	KindAromaticBond    // :
	KindAnyBond         // ~
	KindRingBond        // @
	KindDirectionalBond // / or \

	// KindCompound holds an AND entry that is itself an OR expression,
	// e.g. the "X3,X4" in [#6;X3,X4]. The raw text is kept as the token.
	KindCompound
)

var kindNames = map[DecoratorKind]string{
	KindUnknown:           "unknown",
	KindAtomicNumber:      "atomic_number",
	KindWildcard:          "wildcard",
	KindAromatic:          "aromatic",
	KindAliphatic:         "aliphatic",
	KindDegree:            "degree",
	KindTotalHydrogens:    "total_hydrogens",
	KindImplicitHydrogens: "implicit_hydrogens",
	KindConnectivity:      "connectivity",
	KindRingBondCount:     "ring_bond_count",
	KindRingSize:          "ring_size",
	KindRingMembership:    "ring_membership",
	KindValence:           "valence",
	KindCharge:            "charge",
	KindChirality:         "chirality",
	KindHybridization:     "hybridization",
	KindRecursive:         "recursive",
	KindSingleBond:        "single",
	KindDoubleBond:        "double",
	KindTripleBond:        "triple",
	KindAromaticBond:      "aromatic_bond",
	KindAnyBond:           "any",
	KindRingBond:          "ring_bond",
	KindDirectionalBond:   "directional",
	KindCompound:          "compound",
}

func (k DecoratorKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// IsBond reports whether the kind qualifies bonds rather than atoms.
func (k DecoratorKind) IsBond() bool {
	return k >= KindSingleBond && k <= KindDirectionalBond
}

// Decorator is one primitive qualifier. Equality is exact on token and
// negation: "X4" and "!X4" are distinct and never reduced.
type Decorator struct {
	Kind    DecoratorKind
	Token   string
	Negated bool
}

// String renders the decorator with its negation marker.
func (d Decorator) String() string {
	if d.Negated {
		return "!" + d.Token
	}
	return d.Token
}

// ORType is one alternative of an OR-group: a primary token refined by
// further decorators that must all hold together with it.
type ORType struct {
	Primary    Decorator
	Decorators []Decorator
}

// String renders the alternative as it appears inside a pattern.
func (o ORType) String() string {
	return joinPrimitives(append([]Decorator{o.Primary}, o.Decorators...))
}

// Has reports whether the alternative carries the rendered token among its
// refining decorators.
func (o ORType) Has(token string) bool {
	return containsToken(o.Decorators, token)
}

// Tokens returns the refining decorators as rendered strings.
func (o ORType) Tokens() []string {
	return tokens(o.Decorators)
}

func (o ORType) clone() ORType {
	return ORType{Primary: o.Primary, Decorators: append([]Decorator(nil), o.Decorators...)}
}

func cloneORTypes(in []ORType) []ORType {
	if len(in) == 0 {
		return nil
	}
	out := make([]ORType, len(in))
	for i, o := range in {
		out[i] = o.clone()
	}
	return out
}

func containsToken(decs []Decorator, token string) bool {
	for _, d := range decs {
		if d.String() == token {
			return true
		}
	}
	return false
}

func tokens(decs []Decorator) []string {
	out := make([]string, len(decs))
	for i, d := range decs {
		out[i] = d.String()
	}
	return out
}

// joinPrimitives concatenates primitives, inserting '&' only where two
// neighbours would otherwise read back as a single token ("+" "+" or "@" "@").
func joinPrimitives(decs []Decorator) string {
	var sb strings.Builder
	prev := ""
	for _, d := range decs {
		s := d.String()
		if prev != "" && s != "" && mergesWith(prev[len(prev)-1], s[0]) {
			sb.WriteByte('&')
		}
		sb.WriteString(s)
		prev = s
	}
	return sb.String()
}

func mergesWith(last, next byte) bool {
	switch last {
	case '+', '-':
		return next == '+' || next == '-' || isDigit(next)
	case '@':
		return next == '@' || isDigit(next)
	case '#':
		return isDigit(next)
	}
	if isDigit(last) {
		return isDigit(next)
	}
	return strings.IndexByte("DHhXxrRvV", last) >= 0 && isDigit(next)
}

// ─────────────────────────────────────────────────────────────────────────────
// Primitive scanning
// ─────────────────────────────────────────────────────────────────────────────

var countedKinds = map[byte]DecoratorKind{
	'D': KindDegree,
	'H': KindTotalHydrogens,
	'h': KindImplicitHydrogens,
	'X': KindConnectivity,
	'x': KindRingBondCount,
	'r': KindRingSize,
	'R': KindRingMembership,
	'v': KindValence,
	'V': KindValence,
}

var bondKinds = map[byte]DecoratorKind{
	'-':  KindSingleBond,
	'=':  KindDoubleBond,
	'#':  KindTripleBond,
	':':  KindAromaticBond,
	'~':  KindAnyBond,
	'@':  KindRingBond,
	'/':  KindDirectionalBond,
	'\\': KindDirectionalBond,
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func digitsEnd(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}

// matchClose returns the index of the ')' closing the '(' at s[open],
// honouring nested parentheses and brackets, or -1.
func matchClose(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth == 0 {
				if s[i] != ')' {
					return -1
				}
				return i
			}
		}
	}
	return -1
}

// scanAtomPrimitive reads one atom primitive starting at s[i]. It returns
// the decorator, the index just past it and whether a primitive was found.
func scanAtomPrimitive(s string, i int) (Decorator, int, bool) {
	start := i
	neg := false
	if i < len(s) && s[i] == '!' {
		neg = true
		i++
	}
	if i >= len(s) {
		return Decorator{}, start, false
	}
	tok := i
	var kind DecoratorKind
	c := s[i]
	switch {
	case c == '#':
		j := digitsEnd(s, i+1)
		if j == i+1 {
			return Decorator{}, start, false
		}
		kind, i = KindAtomicNumber, j
	case c == '*':
		kind, i = KindWildcard, i+1
	case c == 'a':
		kind, i = KindAromatic, i+1
	case c == 'A':
		kind, i = KindAliphatic, i+1
	case countedKinds[c] != KindUnknown:
		kind, i = countedKinds[c], digitsEnd(s, i+1)
	case c == '^':
		j := digitsEnd(s, i+1)
		if j == i+1 {
			return Decorator{}, start, false
		}
		kind, i = KindHybridization, j
	case c == '+' || c == '-':
		j := i + 1
		if d := digitsEnd(s, j); d > j {
			j = d
		} else {
			for j < len(s) && s[j] == c {
				j++
			}
		}
		kind, i = KindCharge, j
	case c == '@':
		j := i + 1
		if j < len(s) && s[j] == '@' {
			j++
		} else {
			j = digitsEnd(s, j)
		}
		kind, i = KindChirality, j
	case c == '$':
		if i+1 >= len(s) || s[i+1] != '(' {
			return Decorator{}, start, false
		}
		end := matchClose(s, i+1)
		if end < 0 {
			return Decorator{}, start, false
		}
		kind, i = KindRecursive, end+1
	default:
		return Decorator{}, start, false
	}
	return Decorator{Kind: kind, Token: s[tok:i], Negated: neg}, i, true
}

// scanBondPrimitive reads one bond primitive starting at s[i].
func scanBondPrimitive(s string, i int) (Decorator, int, bool) {
	start := i
	neg := false
	if i < len(s) && s[i] == '!' {
		neg = true
		i++
	}
	if i >= len(s) {
		return Decorator{}, start, false
	}
	kind, ok := bondKinds[s[i]]
	if !ok {
		return Decorator{}, start, false
	}
	return Decorator{Kind: kind, Token: s[i : i+1], Negated: neg}, i + 1, true
}

type scanner func(s string, i int) (Decorator, int, bool)

// scanConjunction reads a run of juxtaposed or '&'-joined primitives. On
// failure it returns the offset of the first unreadable byte.
func scanConjunction(s string, scan scanner) ([]Decorator, int, bool) {
	var out []Decorator
	i := 0
	for i < len(s) {
		if s[i] == '&' {
			if len(out) == 0 || i+1 >= len(s) || s[i+1] == '&' {
				return nil, i, false
			}
			i++
		}
		d, next, ok := scan(s, i)
		if !ok {
			return nil, i, false
		}
		out = append(out, d)
		i = next
	}
	if len(out) == 0 {
		return nil, 0, false
	}
	return out, 0, true
}

// segment is a slice of an expression with its offset in the enclosing text.
type segment struct {
	text   string
	offset int
}

// splitTopLevel splits s on sep, ignoring separators nested inside
// parentheses or brackets (recursive $(...) bodies).
func splitTopLevel(s string, sep byte, offset int) []segment {
	var out []segment
	depth, last := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, segment{text: s[last:i], offset: offset + last})
				last = i + 1
			}
		}
	}
	return append(out, segment{text: s[last:], offset: offset + last})
}

// exprError locates a failure inside a decorator expression.
type exprError struct {
	offset   int
	fragment string
	reason   error
}

// parseExpression turns an expression into an OR-group (first ';' term) and
// an AND-set (remaining terms). An AND term containing a top-level ',' is kept
// whole as a KindCompound decorator after each alternative is validated.
func parseExpression(expr string, offset int, scan scanner) ([]ORType, []Decorator, *exprError) {
	terms := splitTopLevel(expr, ';', offset)
	var ors []ORType
	for _, alt := range splitTopLevel(terms[0].text, ',', terms[0].offset) {
		decs, bad, ok := scanConjunction(alt.text, scan)
		if !ok {
			return nil, nil, conjunctionError(alt, bad)
		}
		ors = append(ors, ORType{Primary: decs[0], Decorators: decs[1:]})
	}
	var ands []Decorator
	for _, term := range terms[1:] {
		decs, err := parseANDTerm(term, scan)
		if err != nil {
			return nil, nil, err
		}
		ands = append(ands, decs...)
	}
	return ors, ands, nil
}

func parseANDTerm(term segment, scan scanner) ([]Decorator, *exprError) {
	alts := splitTopLevel(term.text, ',', term.offset)
	if len(alts) == 1 {
		decs, bad, ok := scanConjunction(term.text, scan)
		if !ok {
			return nil, conjunctionError(term, bad)
		}
		return decs, nil
	}
	for _, alt := range alts {
		if _, bad, ok := scanConjunction(alt.text, scan); !ok {
			return nil, conjunctionError(alt, bad)
		}
	}
	return []Decorator{{Kind: KindCompound, Token: term.text}}, nil
}

func conjunctionError(seg segment, bad int) *exprError {
	if seg.text == "" {
		return &exprError{offset: seg.offset, fragment: "", reason: ErrEmptyExpression}
	}
	return &exprError{offset: seg.offset + bad, fragment: primitiveFragment(seg.text, bad), reason: ErrUnknownDecorator}
}

// primitiveFragment extracts the offending token for error messages.
func primitiveFragment(s string, i int) string {
	j := i + 1
	for j < len(s) && !strings.ContainsRune("&!#*$+-@^[](),;:", rune(s[j])) && !isDigit(s[j]) {
		j++
	}
	j = digitsEnd(s, j)
	if j > len(s) {
		j = len(s)
	}
	return s[i:j]
}

// ─────────────────────────────────────────────────────────────────────────────
// Public constructors used by the mutation API
// ─────────────────────────────────────────────────────────────────────────────

func parseSingle(token string, scan scanner) (Decorator, error) {
	d, next, ok := scan(token, 0)
	if !ok || next != len(token) {
		return Decorator{}, &DecoratorError{Token: token, Reason: ErrUnknownDecorator}
	}
	return d, nil
}

func newORType(primary string, decorators []string, scan scanner) (ORType, error) {
	p, err := parseSingle(primary, scan)
	if err != nil {
		return ORType{}, err
	}
	o := ORType{Primary: p}
	for _, tok := range decorators {
		d, err := parseSingle(tok, scan)
		if err != nil {
			return ORType{}, err
		}
		o.Decorators = append(o.Decorators, d)
	}
	return o, nil
}

// NewAtomORType builds an atom alternative such as ("#7", "X3").
func NewAtomORType(primary string, decorators ...string) (ORType, error) {
	return newORType(primary, decorators, scanAtomPrimitive)
}

// NewBondORType builds a bond alternative such as ("-").
func NewBondORType(primary string, decorators ...string) (ORType, error) {
	return newORType(primary, decorators, scanBondPrimitive)
}

func newANDTypes(term string, scan scanner) ([]Decorator, error) {
	decs, err := parseANDTerm(segment{text: term}, scan)
	if err != nil {
		return nil, &DecoratorError{Token: term, Reason: err.reason}
	}
	return decs, nil
}

// NewAtomANDTypes parses one atom AND term. Juxtaposed primitives ("X4H0")
// yield one decorator each; a term with ',' yields a single compound.
func NewAtomANDTypes(term string) ([]Decorator, error) {
	return newANDTypes(term, scanAtomPrimitive)
}

// NewBondANDTypes parses one bond AND term.
func NewBondANDTypes(term string) ([]Decorator, error) {
	return newANDTypes(term, scanBondPrimitive)
}

// ParseAtomExpression parses a bracket body without its label, e.g.
// "#6X4,#7;R", into an OR-group and AND-set.
func ParseAtomExpression(expr string) ([]ORType, []Decorator, error) {
	ors, ands, err := parseExpression(expr, 0, scanAtomPrimitive)
	if err != nil {
		return nil, nil, &DecoratorError{Token: err.fragment, Reason: err.reason}
	}
	return ors, ands, nil
}

// ParseBondExpression parses a bond expression such as "=,:;@". The empty
// string is the implicit default bond.
func ParseBondExpression(expr string) ([]ORType, []Decorator, error) {
	if expr == "" {
		return nil, nil, nil
	}
	ors, ands, err := parseExpression(expr, 0, scanBondPrimitive)
	if err != nil {
		return nil, nil, &DecoratorError{Token: err.fragment, Reason: err.reason}
	}
	return ors, ands, nil
}

//Personal.AI order the ending
