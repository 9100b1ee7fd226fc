package parse

import (
	"fmt"
	"sort"
	"strings"
)

// Parser is an incremental Earley parser. Tokens are fed one at a time;
// after any token the trees spanning everything fed so far can be
// requested. A rejected token leaves the parser unchanged.
type Parser struct {
	grammar *Grammar
	chart   []*itemSet
	tokens  []Token
}

type itemKey struct {
	rule, dot, origin int
}

// link records one way an item was reached: by advancing prev over either a
// completed child item or the token at index tok.
type link struct {
	prev  *item
	child *item
	tok   int
}

type item struct {
	rule   *rule
	dot    int
	origin int
	links  []link
}

func (it *item) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s →", it.rule.lhs)
	for i, sym := range it.rule.rhs {
		if i == it.dot {
			b.WriteString(" •")
		}
		b.WriteString(" " + sym.String())
	}
	if it.done() {
		b.WriteString(" •")
	}
	fmt.Fprintf(&b, ", %d]", it.origin)
	return b.String()
}

func (it *item) done() bool {
	return it.dot == len(it.rule.rhs)
}

func (it *item) next() symbol {
	return it.rule.rhs[it.dot]
}

type itemSet struct {
	items   []*item
	index   map[itemKey]*item
	waiting map[string][]*item
}

func newItemSet() *itemSet {
	return &itemSet{
		index:   make(map[itemKey]*item),
		waiting: make(map[string][]*item),
	}
}

func (s *itemSet) add(r *rule, dot, origin int, l *link) {
	key := itemKey{r.id, dot, origin}
	if it, ok := s.index[key]; ok {
		if l != nil {
			for _, have := range it.links {
				if have == *l {
					return
				}
			}
			it.links = append(it.links, *l)
		}
		return
	}
	it := &item{rule: r, dot: dot, origin: origin}
	if l != nil {
		it.links = []link{*l}
	}
	s.index[key] = it
	s.items = append(s.items, it)
}

// NewParser returns a parser positioned before the first token.
func NewParser(g *Grammar) *Parser {
	p := &Parser{grammar: g}
	p.Reset()
	return p
}

// Reset discards all input. States saved before the reset become invalid.
func (p *Parser) Reset() {
	set := newItemSet()
	for _, r := range p.grammar.rules[p.grammar.start] {
		set.add(r, 0, 0, nil)
	}
	p.chart = nil
	p.closure(set, 0)
	p.chart = []*itemSet{set}
	p.tokens = p.tokens[:0]
}

// closure runs prediction and completion over set, which sits at chart
// position pos and is not yet part of the chart.
func (p *Parser) closure(set *itemSet, pos int) {
	predicted := make(map[string]bool)
	for i := 0; i < len(set.items); i++ {
		it := set.items[i]
		if it.done() {
			// Rules never derive the empty string, so origin < pos.
			for _, w := range p.chart[it.origin].waiting[it.rule.lhs] {
				set.add(w.rule, w.dot+1, w.origin, &link{prev: w, child: it, tok: -1})
			}
			continue
		}
		sym := it.next()
		if sym.terminal {
			continue
		}
		set.waiting[sym.name] = append(set.waiting[sym.name], it)
		if !predicted[sym.name] {
			predicted[sym.name] = true
			for _, r := range p.grammar.rules[sym.name] {
				set.add(r, 0, pos, nil)
			}
		}
	}
}

func matches(sym symbol, tok Token) bool {
	if sym.name != "" {
		return tok.Class == sym.name
	}
	return tok.Class == "" && tok.Literal == sym.literal
}

// Feed advances the parser over tok. When no item can consume the token an
// *Error is returned and the parser state is left untouched.
func (p *Parser) Feed(tok Token) error {
	pos := len(p.chart) - 1
	next := newItemSet()
	for _, it := range p.chart[pos].items {
		if !it.done() && it.next().terminal && matches(it.next(), tok) {
			next.add(it.rule, it.dot+1, it.origin, &link{prev: it, tok: len(p.tokens)})
		}
	}
	if len(next.items) == 0 {
		return &Error{Got: tok, Expected: p.Expected()}
	}
	p.tokens = append(p.tokens, tok)
	p.closure(next, pos+1)
	p.chart = append(p.chart, next)
	return nil
}

// Accepts reports whether Feed would accept tok.
func (p *Parser) Accepts(tok Token) bool {
	for _, it := range p.chart[len(p.chart)-1].items {
		if !it.done() && it.next().terminal && matches(it.next(), tok) {
			return true
		}
	}
	return false
}

// Expected returns the terminals the parser can consume next.
func (p *Parser) Expected() []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range p.chart[len(p.chart)-1].items {
		if it.done() || !it.next().terminal {
			continue
		}
		s := it.next().String()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Fed returns the number of tokens consumed since the last reset.
func (p *Parser) Fed() int {
	return len(p.tokens)
}

// State is a saved parser position.
type State struct {
	n int
}

// Save returns the current position.
func (p *Parser) Save() State {
	return State{n: len(p.tokens)}
}

// Restore rewinds the parser to a position returned by Save.
func (p *Parser) Restore(s State) {
	if s.n > len(p.tokens) {
		return
	}
	p.chart = p.chart[:s.n+1]
	p.tokens = p.tokens[:s.n]
}

// Results returns the complete parses of the tokens fed so far: none when
// the input is not (yet) a sentence, one when it is unambiguous, and two
// distinct trees when it is ambiguous. Further ambiguities are not
// enumerated.
func (p *Parser) Results() []*Node {
	if len(p.tokens) == 0 {
		return nil
	}
	var roots []*item
	for _, it := range p.chart[len(p.chart)-1].items {
		if it.done() && it.origin == 0 && it.rule.lhs == p.grammar.start {
			roots = append(roots, it)
		}
	}
	b := &builder{tokens: p.tokens, counts: make(map[*item]int)}
	var live []*item
	total := 0
	for _, r := range roots {
		if c := b.count(r); c > 0 {
			live = append(live, r)
			total += c
		}
	}
	if len(live) == 0 {
		return nil
	}

	first := b.node(live[0])
	if total < 2 {
		return []*Node{first}
	}
	if len(live) > 1 {
		return []*Node{first, b.node(live[1])}
	}
	amb, idx := b.findAmbiguous(live[0], make(map[*item]bool))
	if amb == nil {
		return []*Node{first}
	}
	b.override = map[*item]int{amb: idx}
	return []*Node{first, b.node(live[0])}
}

type builder struct {
	tokens   []Token
	counts   map[*item]int
	override map[*item]int
}

// count returns the number of derivations of it, capped at two.
func (b *builder) count(it *item) int {
	if it.dot == 0 {
		return 1
	}
	if c, ok := b.counts[it]; ok {
		return c
	}
	b.counts[it] = 0
	total := 0
	for _, l := range it.links {
		total += b.linkCount(l)
		if total >= 2 {
			total = 2
			break
		}
	}
	b.counts[it] = total
	return total
}

func (b *builder) linkCount(l link) int {
	c := b.count(l.prev)
	if l.child != nil && c > 0 {
		c *= b.count(l.child)
	}
	return c
}

func (b *builder) choose(it *item) int {
	if idx, ok := b.override[it]; ok {
		return idx
	}
	for i, l := range it.links {
		if b.linkCount(l) > 0 {
			return i
		}
	}
	return 0
}

func (b *builder) chain(it *item) []link {
	var out []link
	for cur := it; cur.dot > 0; {
		l := cur.links[b.choose(cur)]
		out = append(out, l)
		cur = l.prev
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (b *builder) node(it *item) *Node {
	n := NewNonTerminal(it.rule.lhs)
	b.children(it, n)
	return n
}

func (b *builder) children(it *item, n *Node) {
	for _, l := range b.chain(it) {
		switch {
		case l.child == nil:
			n.AddChild(NewTerminal(b.tokens[l.tok]))
		case l.child.rule.hidden:
			b.children(l.child, n)
		default:
			n.AddChild(b.node(l.child))
		}
	}
}

// findAmbiguous walks the default derivation of it and returns the first
// item that has a second viable link, with that link's index.
func (b *builder) findAmbiguous(it *item, visited map[*item]bool) (*item, int) {
	if visited[it] {
		return nil, 0
	}
	visited[it] = true
	for cur := it; cur.dot > 0; {
		chosen := b.choose(cur)
		for i, l := range cur.links {
			if i != chosen && b.linkCount(l) > 0 {
				return cur, i
			}
		}
		cur = cur.links[chosen].prev
	}
	for _, l := range b.chain(it) {
		if l.child == nil {
			continue
		}
		if amb, idx := b.findAmbiguous(l.child, visited); amb != nil {
			return amb, idx
		}
	}
	return nil, 0
}

// Error reports a token the parser could not consume.
type Error struct {
	Got      Token
	Expected []string
}

func (e *Error) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("unexpected %s", e.Got)
	}
	return fmt.Sprintf("unexpected %s, expected %s", e.Got, strings.Join(e.Expected, ", "))
}
