package richtext

import (
	"strings"
)

// Stats counts what each reconciliation pass did.
type Stats struct {
	ByTag      int // model-authored <img> swapped back for an original
	ByToken    int // placeholder token resolved
	Recovered  int // placeholder appended because the model lost it
	Dropped    int // model-authored <img> with no matching original, or inert
	Duplicates int // tokens removed without resolving
}

// Reconcile merges model-rewritten markup with the original images so that
// each placeholder's original tag appears exactly once.
func Reconcile(markup string, placeholders []Placeholder) string {
	out, _ := ReconcileWithStats(markup, placeholders)
	return out
}

// ReconcileWithStats is Reconcile plus per-pass counters.
func ReconcileWithStats(markup string, placeholders []Placeholder) (string, Stats) {
	var st Stats
	consumed := make([]bool, len(placeholders))

	// pass 1: the model may have written <img> elements itself. Never keep
	// its attributes; swap in an original with the same src or drop it.
	// Restored originals stay as indexes until the end so no later pass
	// reads their attributes.
	queues := make(map[string][]int, len(placeholders))
	for i, p := range placeholders {
		queues[p.Src] = append(queues[p.Src], i)
	}
	type segment struct {
		text       string
		restored   int
		// resolvable is false for tag bytes and raw-text bodies
		resolvable bool
	}
	var segs []segment
	for _, p := range scan(markup, false) {
		if p.img == nil || !p.img.hasSrc() {
			// not an original either way; extraction left these alone too
			segs = append(segs, segment{text: p.raw, restored: -1, resolvable: p.text && !p.inert})
			continue
		}
		q := queues[p.img.src]
		if p.img.inert || len(q) == 0 {
			st.Dropped++
			continue
		}
		i := q[0]
		queues[p.img.src] = q[1:]
		consumed[i] = true
		st.ByTag++
		segs = append(segs, segment{restored: i})
	}

	// pass 2: first occurrence of an unconsumed token becomes its tag,
	// everything else collapses. Tokens inside tags or raw-text bodies are
	// not positions, so they are removed without consuming.
	byToken := make(map[string]int, len(placeholders))
	for i, p := range placeholders {
		byToken[p.Token] = i
	}
	var b strings.Builder
	b.Grow(len(markup))
	for _, sg := range segs {
		if sg.restored >= 0 {
			b.WriteString(placeholders[sg.restored].Tag)
			continue
		}
		b.WriteString(tokenPattern.ReplaceAllStringFunc(sg.text, func(tok string) string {
			i, ok := byToken[tok]
			if !sg.resolvable || !ok || consumed[i] {
				st.Duplicates++
				return ""
			}
			consumed[i] = true
			st.ByToken++
			return placeholders[i].Tag
		}))
	}
	out := b.String()

	// pass 3
	var tail strings.Builder
	for i, p := range placeholders {
		if consumed[i] {
			continue
		}
		tail.WriteString("<p>")
		tail.WriteString(p.Tag)
		tail.WriteString("</p>")
		st.Recovered++
	}
	if tail.Len() == 0 {
		return out, st
	}
	if strings.TrimSpace(out) == "" {
		return tail.String(), st
	}
	return out + tail.String(), st
}
