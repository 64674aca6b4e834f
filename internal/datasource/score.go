package datasource

import (
	"strconv"
	"strings"
)

// Score is a parsed result string, seen from the winner's side
type Score struct {
	WinnerSets int
	LoserSets  int
	Retired    bool
	Walkover   bool
}

// ParseScore parses strings such as "6-4 3-6 7-6(5)" or "6-3 2-1 RET".
// Tiebreak points in parentheses are ignored and bracketed match tiebreaks
// count as a set. In a retirement only completed sets are counted, and the
// winner is credited with one set more than the loser when that leaves them level or behind.
func ParseScore(raw string) (Score, bool) {
	var s Score
	fields := strings.Fields(strings.ToUpper(raw))
	if len(fields) == 0 {
		return s, false
	}

	type set struct {
		w, l     int
		decisive bool
	}
	var sets []set
	for _, f := range fields {
		switch f {
		case "W/O", "WO", "WALKOVER":
			s.Walkover = true
			continue
		case "RET", "RET.", "RETIRED", "DEF", "DEF.", "ABD", "ABN":
			s.Retired = true
			continue
		}

		bracketed := strings.HasPrefix(f, "[")
		f = strings.Trim(f, "[]")
		if i := strings.IndexByte(f, '('); i >= 0 {
			f = f[:i]
		}
		parts := strings.Split(f, "-")
		if len(parts) != 2 {
			continue
		}
		w, errW := strconv.Atoi(parts[0])
		l, errL := strconv.Atoi(parts[1])
		if errW != nil || errL != nil || w == l {
			continue
		}
		if bracketed {
			// A match tiebreak always decides a set.
			sets = append(sets, set{w: w, l: l, decisive: true})
			continue
		}
		sets = append(sets, set{w: w, l: l})
	}

	if s.Walkover {
		return s, true
	}

	for i, st := range sets {
		last := i == len(sets)-1
		if s.Retired && last && !st.decisive && !setComplete(st.w, st.l) {
			continue
		}
		if st.w > st.l {
			s.WinnerSets++
		} else {
			s.LoserSets++
		}
	}

	if s.Retired && s.WinnerSets <= s.LoserSets {
		s.WinnerSets = s.LoserSets + 1
	}
	if s.WinnerSets == 0 && s.LoserSets == 0 {
		return s, false
	}
	return s, true
}

func setComplete(w, l int) bool {
	hi, lo := w, l
	if lo > hi {
		hi, lo = lo, hi
	}
	if hi < 6 {
		return false
	}
	return hi-lo >= 2 || (hi == 7 && lo == 6)
}
