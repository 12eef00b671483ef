package pattern

import (
	"strconv"
	"strings"
)

const bondChars = "-=#:~@!/\\,;&"

// branch remembers where a '(' was opened.
type branch struct {
	atom    AtomID
	atomsAt int
	pos     int
}

// pendingBond is a bond expression read but not yet attached.
type pendingBond struct {
	text string
	pos  int
	ors  []ORType
	ands []Decorator
}

// openRing is a ring-closure digit seen once.
type openRing struct {
	atom AtomID
	pos  int
	bond *pendingBond
}

type parser struct {
	input   string
	pos     int
	g       *Graph
	current AtomID
	stack   []branch
	bond    *pendingBond
	rings   map[int]*openRing
}

// Parse builds a Graph from a linear pattern string in one left-to-right
// pass. Either the whole string parses into a connected graph or a
// *ParseError is returned.
func Parse(input string) (*Graph, error) {
	if input == "" {
		return nil, &ParseError{Input: input, Reason: ErrEmptyPattern}
	}
	p := &parser{input: input, g: NewGraph(), rings: make(map[int]*openRing)}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.g, nil
}

// MustParse is Parse that panics on error. Intended for fixed patterns.
func MustParse(input string) *Graph {
	g, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return g
}

func (p *parser) fail(pos int, fragment string, reason error) error {
	return &ParseError{Input: p.input, Pos: pos, Fragment: fragment, Reason: reason}
}

func (p *parser) run() error {
	s := p.input
	for p.pos < len(s) {
		c := s[p.pos]
		var err error
		switch {
		case c == '[':
			err = p.atom()
		case c == ']':
			err = p.fail(p.pos, "]", ErrUnbalancedBracket)
		case c == '(':
			err = p.open()
		case c == ')':
			err = p.close()
		case isDigit(c) || c == '%':
			err = p.ringClosure()
		case strings.IndexByte(bondChars, c) >= 0:
			err = p.bondExpr()
		case c == '.':
			err = p.fail(p.pos, ".", ErrDisconnected)
		default:
			err = p.fail(p.pos, string(c), ErrUnexpectedChar)
		}
		if err != nil {
			return err
		}
	}
	return p.finish()
}

func (p *parser) finish() error {
	if p.bond != nil {
		return p.fail(p.bond.pos, p.bond.text, ErrDanglingBond)
	}
	if n := len(p.stack); n > 0 {
		return p.fail(p.stack[n-1].pos, "(", ErrUnbalancedParen)
	}
	if len(p.rings) > 0 {
		first := -1
		for num, r := range p.rings {
			if first < 0 || r.pos < p.rings[first].pos {
				first = num
			}
		}
		r := p.rings[first]
		return p.fail(r.pos, ringToken(first), ErrUnclosedRing)
	}
	if !p.g.IsConnected() {
		return p.fail(len(p.input), "", ErrDisconnected)
	}
	return nil
}

// closeBracket finds the ']' matching the '[' at open, skipping over
// recursive bodies.
func closeBracket(s string, open int) int {
	depth := 0
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')':
			depth--
		case ']':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

func (p *parser) atom() error {
	start := p.pos
	end := closeBracket(p.input, start)
	if end < 0 {
		return p.fail(start, p.input[start:], ErrUnbalancedBracket)
	}
	body := p.input[start+1 : end]
	bodyAt := start + 1

	expr, label := body, 0
	if colon := lastTopLevel(body, ':'); colon >= 0 {
		text := body[colon+1:]
		n, err := strconv.Atoi(text)
		if err != nil || text == "" || strings.IndexFunc(text, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return p.fail(bodyAt+colon, body[colon:], ErrUnknownDecorator)
		}
		expr, label = body[:colon], n
		if label > 0 {
			if _, taken := p.g.labels[label]; taken {
				return p.fail(bodyAt+colon, body[colon:], ErrDuplicateLabel)
			}
		}
	}
	if expr == "" {
		return p.fail(start, p.input[start:end+1], ErrEmptyExpression)
	}
	ors, ands, xerr := parseExpression(expr, bodyAt, scanAtomPrimitive)
	if xerr != nil {
		return p.fail(xerr.offset, xerr.fragment, xerr.reason)
	}

	a, err := p.g.insertAtom(label, ors, ands)
	if err != nil {
		return p.fail(start, p.input[start:end+1], err)
	}
	if p.current != 0 {
		var bors []ORType
		var bands []Decorator
		if p.bond != nil {
			bors, bands = p.bond.ors, p.bond.ands
		}
		p.g.insertBond(p.current, a.id, bors, bands, false)
	} else if p.bond != nil {
		return p.fail(p.bond.pos, p.bond.text, ErrUnexpectedChar)
	}
	p.bond = nil
	p.current = a.id
	p.pos = end + 1
	return nil
}

func lastTopLevel(s string, c byte) int {
	depth, at := 0, -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case c:
			if depth == 0 {
				at = i
			}
		}
	}
	return at
}

func (p *parser) open() error {
	if p.current == 0 || p.bond != nil {
		return p.fail(p.pos, "(", ErrUnexpectedChar)
	}
	p.stack = append(p.stack, branch{atom: p.current, atomsAt: p.g.NumAtoms(), pos: p.pos})
	p.pos++
	return nil
}

func (p *parser) close() error {
	n := len(p.stack)
	if n == 0 {
		return p.fail(p.pos, ")", ErrUnbalancedParen)
	}
	if p.bond != nil {
		return p.fail(p.bond.pos, p.bond.text, ErrDanglingBond)
	}
	top := p.stack[n-1]
	if p.g.NumAtoms() == top.atomsAt {
		return p.fail(top.pos, p.input[top.pos:p.pos+1], ErrUnexpectedChar)
	}
	p.stack = p.stack[:n-1]
	p.current = top.atom
	p.pos++
	return nil
}

func (p *parser) bondExpr() error {
	start := p.pos
	end := start
	for end < len(p.input) && strings.IndexByte(bondChars, p.input[end]) >= 0 {
		end++
	}
	text := p.input[start:end]
	ors, ands, xerr := parseExpression(text, start, scanBondPrimitive)
	if xerr != nil {
		return p.fail(xerr.offset, xerr.fragment, xerr.reason)
	}
	p.bond = &pendingBond{text: text, pos: start, ors: ors, ands: ands}
	p.pos = end
	return nil
}

func ringToken(n int) string {
	if n > 9 {
		return "%" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func (p *parser) ringClosure() error {
	start := p.pos
	var num int
	if p.input[start] == '%' {
		if start+2 >= len(p.input) || !isDigit(p.input[start+1]) || !isDigit(p.input[start+2]) {
			end := start + 3
			if end > len(p.input) {
				end = len(p.input)
			}
			return p.fail(start, p.input[start:end], ErrUnexpectedChar)
		}
		num, _ = strconv.Atoi(p.input[start+1 : start+3])
		p.pos = start + 3
	} else {
		num = int(p.input[start] - '0')
		p.pos = start + 1
	}
	token := p.input[start:p.pos]
	if p.current == 0 {
		return p.fail(start, token, ErrUnexpectedChar)
	}

	bond := p.bond
	p.bond = nil
	open, ok := p.rings[num]
	if !ok {
		p.rings[num] = &openRing{atom: p.current, pos: start, bond: bond}
		return nil
	}
	delete(p.rings, num)

	if open.atom == p.current {
		return p.fail(start, token, ErrRingBondConflict)
	}
	if _, dup := p.g.bondBetweenIDs(open.atom, p.current); dup {
		return p.fail(start, token, ErrRingBondConflict)
	}
	chosen := open.bond
	if bond != nil {
		if chosen != nil && chosen.text != bond.text {
			return p.fail(bond.pos, bond.text+token, ErrRingBondConflict)
		}
		chosen = bond
	}
	var ors []ORType
	var ands []Decorator
	if chosen != nil {
		ors, ands = chosen.ors, chosen.ands
	}
	p.g.insertBond(open.atom, p.current, ors, ands, true)
	return nil
}

//Personal.AI order the ending
