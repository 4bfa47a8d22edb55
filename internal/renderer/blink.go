package renderer

import "github.com/dshills/softterm/internal/renderer/cellrender"

// blinkPeriod is the number of Draw calls in one blink cycle.
const blinkPeriod = 200

// blinkPhase returns the blink state for a counter value in [0, blinkPeriod).
// Fast blink text is hidden for the first six calls of every hundred; slow
// blink text for calls 20 through 25 of every two hundred.
func blinkPhase(counter int) cellrender.Blink {
	return cellrender.Blink{
		Fast: counter%100 <= 5,
		Slow: counter >= 20 && counter <= 25,
	}
}

// tick advances the blink counter. It runs once per Draw.
func (e *Engine) tick() {
	e.blinkCounter = (e.blinkCounter + 1) % blinkPeriod
	e.blink = blinkPhase(e.blinkCounter)
}
