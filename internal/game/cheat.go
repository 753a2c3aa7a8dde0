package game

import "math/rand"

// CheatClock is the part of the Clock the cheat needs.
type CheatClock interface {
	Remaining() int
	Adjust(deltaSeconds int)
}

// Cheat spends clock time to knock out wrong options.
type Cheat struct {
	cost    int
	removes int
	clock   CheatClock
	rnd     *rand.Rand
	used    int
}

func NewCheat(settings Settings, clock CheatClock, rnd *rand.Rand) *Cheat {
	return &Cheat{
		cost:    settings.CheatCost,
		removes: settings.CheatAnswersRemoved,
		clock:   clock,
		rnd:     rnd,
	}
}

// Invoke removes up to CheatAnswersRemoved of the wrong options, chosen
// uniformly without replacement. It is rejected when the input gate is closed
// or the clock does not hold strictly more than the cost, so a cheat can never
// be what exhausts the clock. ok is false on rejection and nothing changes.
func (c *Cheat) Invoke(gateClosed bool, options []string, correctAnswer string) (removed []string, ok bool) {
	if gateClosed || c.clock.Remaining() <= c.cost {
		return nil, false
	}
	c.clock.Adjust(-c.cost)
	c.used++

	wrong := make([]string, 0, len(options))
	for _, o := range options {
		if o != correctAnswer {
			wrong = append(wrong, o)
		}
	}
	k := min(c.removes, len(wrong))
	// partial Fisher-Yates: the first k slots end up a uniform sample
	for i := 0; i < k; i++ {
		j := i + c.rnd.Intn(len(wrong)-i)
		wrong[i], wrong[j] = wrong[j], wrong[i]
	}
	return wrong[:k], true
}

// Used is the number of successful invocations.
func (c *Cheat) Used() int { return c.used }
