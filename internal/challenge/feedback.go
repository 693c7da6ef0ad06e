package challenge

// markSequence implements two-pass code-breaker feedback over folded elements.
//
// Pass 1:
//   - Mark exact positional matches as Hit.
//   - Count remaining (non-hit) answer elements.
//
// Pass 2:
//   - For each non-hit guess element: if the remaining count for that element is
//     positive, mark Present and decrement; otherwise mark Miss.
//
// Repeated elements in either the answer or the guess are handled correctly.
// Callers guarantee len(answer) == len(guess).
func markSequence(answer, guess []string) []Mark {
	n := len(guess)
	res := make([]Mark, n)
	counts := make(map[string]int, n)

	for i := 0; i < n; i++ {
		if guess[i] == answer[i] {
			res[i] = MarkHit
		} else {
			counts[answer[i]]++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == MarkHit {
			continue
		}
		if counts[guess[i]] > 0 {
			res[i] = MarkPresent
			counts[guess[i]]--
		} else {
			res[i] = MarkMiss
		}
	}
	return res
}

// allHit returns true if all marks are MarkHit.
func allHit(m []Mark) bool {
	if len(m) == 0 {
		return false
	}
	for _, x := range m {
		if x != MarkHit {
			return false
		}
	}
	return true
}
