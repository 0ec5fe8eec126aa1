package tui

import (
	"math/rand/v2"

	"github.com/sadopc/smokebreak/internal/timer"
)

var focusQuotes = []string{
	"The mind is a good fire to warm by, a bad one to burn by.",
	"Concentration is the secret of strength.",
	"The successful warrior is the average man, with laser-like focus.",
	"To produce a mighty work, you must choose a single theme...",
	"The art of being wise is the art of knowing what to overlook.",
	"Time is the coin of your life. Spend it wisely.",
	"He who is not every day conquering some fear has not learned the secret of life.",
	"The simple act of paying attention can take you a long way.",
	"What you stay focused on will grow.",
	"Discipline is the bridge between goals and accomplishment.",
	"The future is something which everyone reaches at the rate of sixty minutes an hour.",
	"Amateurs sit and wait for inspiration, the rest of us just get up and go to work.",
}

var cigaretteQuotes = []string{
	"A cigarette is the perfect type of a perfect pleasure.",
	"Smoking is a striking way of staying under the radar.",
	"Time takes a cigarette, puts it in your mouth.",
	"Life is a pause between a cigarette and another.",
	"To smoke is to meditate on the transcendence of ash.",
	"Every cigarette has a story, unseen and unspoken.",
	"The cigarette is a portable therapist.",
	"Smoking is one of the leading causes of statistics.",
	"A cigarette is a breathing space. It's a punctuation mark in the sentence of your day.",
	"I smoke in moderation. Only one cigarette at a time.",
	"There are some things that are better done with a cigarette.",
}

// quoteFor picks a random quote for phase p using pick(n) in [0, n).
func quoteFor(p timer.Phase, pick func(int) int) string {
	qs := focusQuotes
	if p.IsBreak() {
		qs = cigaretteQuotes
	}
	if pick == nil {
		pick = rand.IntN
	}
	return `"` + qs[pick(len(qs))] + `"`
}
