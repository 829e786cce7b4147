package game

import "slices"

// Player is one seat on the scoreboard.
type Player struct {
	Name       string
	Avatar     string
	Pending    int   // Score entered for the round in progress
	Total      int   // Always the sum of History
	History    []int // One entry per committed round
	Eliminated bool  // Total >= elimination threshold
}

// Rounds returns the number of committed rounds recorded for the player.
func (p Player) Rounds() int {
	return len(p.History)
}

// Active reports whether the player is still in the game.
func (p Player) Active() bool {
	return !p.Eliminated
}

func (p *Player) clone() *Player {
	c := *p
	c.History = slices.Clone(p.History)
	return &c
}

// settle re-derives Total from History and Eliminated from Total.
func (p *Player) settle(threshold int) {
	total := 0
	for _, score := range p.History {
		total += score
	}
	p.Total = total
	p.judge(threshold)
}

// judge re-derives Eliminated and reports whether it flipped from active to out.
func (p *Player) judge(threshold int) bool {
	was := p.Eliminated
	p.Eliminated = p.Total >= threshold
	return !was && p.Eliminated
}

func clonePlayers(players []*Player) []*Player {
	out := make([]*Player, len(players))
	for i, p := range players {
		out[i] = p.clone()
	}
	return out
}
