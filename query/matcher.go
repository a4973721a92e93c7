package query

import (
	"github.com/logpackio/logpack/format"
	"github.com/logpackio/logpack/message"
)

// A target is the text a pattern is matched against, segmented into parts.
// A known part carries exact text. An unknown part stands for a placeholder
// whose value has not been resolved yet; it matches any nonempty string,
// since every variable token is at least one character long.
//
// During logtype filtering the placeholder parts are unknown, which makes the
// match an overapproximation: any event that could match survives. During
// event filtering every part is known, which makes the match exact.
type part struct {
	text  string
	known bool
}

type target struct {
	parts []part
	fold  bool
}

// logtypeTarget builds the filtering target for a parsed logtype.
func logtypeTarget(spans []message.Span, fold bool) *target {
	t := &target{fold: fold}
	for _, sp := range spans {
		if sp.Kind == format.VarStatic {
			if len(sp.Text) > 0 {
				t.parts = append(t.parts, part{text: sp.Text, known: true})
			}

			continue
		}
		t.parts = append(t.parts, part{})
	}

	return t
}

// resolvedTarget builds the exact target for a candidate event: static spans
// keep their text and each placeholder is replaced by its rendered value.
func resolvedTarget(spans []message.Span, vars []string, fold bool) *target {
	t := &target{fold: fold}
	vi := 0
	for _, sp := range spans {
		text := sp.Text
		if sp.Kind != format.VarStatic {
			text = vars[vi]
			vi++
		}
		if len(text) > 0 {
			t.parts = append(t.parts, part{text: text, known: true})
		}
	}

	return t
}

// A pos addresses a point between characters of the target. Known parts have
// offsets 0..len(text). Unknown parts have only offsets 0 and 1, where 1
// means one or more characters of the placeholder value have been consumed;
// the part may only be left from offset 1. The virtual end position is
// (len(parts), 0).
type pos struct {
	part int
	off  int
}

func (a pos) less(b pos) bool {
	return a.part < b.part || (a.part == b.part && a.off < b.off)
}

type stateSet map[pos]struct{}

func (s stateSet) add(p pos) bool {
	if _, ok := s[p]; ok {
		return false
	}
	s[p] = struct{}{}

	return true
}

func eqFold(a byte, b byte, fold bool) bool {
	if a == b {
		return true
	}
	if !fold {
		return false
	}
	if a >= 'A' && a <= 'Z' {
		a += 'a' - 'A'
	}
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}

	return a == b
}

// closure extends the set with every position reachable without consuming a
// character: the end of a part flows into the start of the next.
func (t *target) closure(s stateSet) {
	work := make([]pos, 0, len(s))
	for p := range s {
		work = append(work, p)
	}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		if p.part >= len(t.parts) {
			continue
		}
		pt := t.parts[p.part]
		atEnd := (pt.known && p.off == len(pt.text)) || (!pt.known && p.off == 1)
		if !atEnd {
			continue
		}
		next := pos{part: p.part + 1}
		if s.add(next) {
			work = append(work, next)
		}
	}
}

// step consumes one specific character from every state. The input set must
// be closed; the result is closed.
func (t *target) step(s stateSet, c byte) stateSet {
	out := make(stateSet, len(s))
	for p := range s {
		if p.part >= len(t.parts) {
			continue
		}
		pt := t.parts[p.part]
		if pt.known {
			if p.off < len(pt.text) && eqFold(pt.text[p.off], c, t.fold) {
				out.add(pos{part: p.part, off: p.off + 1})
			}

			continue
		}
		out.add(pos{part: p.part, off: 1})
	}
	t.closure(out)

	return out
}

// stepAny consumes one arbitrary character from every state.
func (t *target) stepAny(s stateSet) stateSet {
	out := make(stateSet, len(s))
	for p := range s {
		if p.part >= len(t.parts) {
			continue
		}
		pt := t.parts[p.part]
		if pt.known {
			if p.off < len(pt.text) {
				out.add(pos{part: p.part, off: p.off + 1})
			}

			continue
		}
		out.add(pos{part: p.part, off: 1})
	}
	t.closure(out)

	return out
}

// starClosure expands the set to every position at or beyond its minimum.
// A `*` may consume any run of characters, and from any position every later
// position is reachable: known parts by consuming their exact text, unknown
// parts by consuming at least one placeholder character.
func (t *target) starClosure(s stateSet) stateSet {
	if len(s) == 0 {
		return s
	}
	min := pos{part: len(t.parts) + 1}
	for p := range s {
		if p.less(min) {
			min = p
		}
	}
	out := make(stateSet, len(s))
	for p := range s {
		out.add(p)
	}
	for pi := min.part; pi < len(t.parts); pi++ {
		start := 0
		if pi == min.part {
			start = min.off
		}
		end := 1
		if t.parts[pi].known {
			end = len(t.parts[pi].text)
		}
		for off := start; off <= end; off++ {
			out.add(pos{part: pi, off: off})
		}
	}
	out.add(pos{part: len(t.parts)})
	t.closure(out)

	return out
}

// matchTarget runs the compiled pattern over the target. The pattern must
// cover the target end to end.
func matchTarget(toks []token, t *target) bool {
	states := stateSet{pos{}: {}}
	t.closure(states)

	for _, tok := range toks {
		switch tok.kind {
		case opLiteral:
			for i := 0; i < len(tok.lit); i++ {
				states = t.step(states, tok.lit[i])
				if len(states) == 0 {
					return false
				}
			}
		case opAnyChar:
			states = t.stepAny(states)
		case opStar:
			states = t.starClosure(states)
		}
		if len(states) == 0 {
			return false
		}
	}

	_, ok := states[pos{part: len(t.parts)}]

	return ok
}
