package gamemaster

// handle is a stable index into the roster. Booting a player never shifts
// the handles of the others.
type handle int

type seat struct {
	name     string
	token    string
	address  string
	agent    Agent
	deployed int
	failures int
	booted   bool
}

// roster is the append-only list of players of one game instance.
type roster struct {
	seats []*seat
}

func (r *roster) add(s *seat) handle {
	r.seats = append(r.seats, s)
	return handle(len(r.seats) - 1)
}

func (r *roster) len() int {
	return len(r.seats)
}

// at returns the player behind h, or nil when h was booted.
func (r *roster) at(h handle) *seat {
	s := r.seats[h]
	if s.booted {
		return nil
	}
	return s
}

func (r *roster) remove(h handle) {
	r.seats[h].booted = true
	r.seats[h].failures = 0
}

// count returns the number of players still in the game.
func (r *roster) count() int {
	n := 0
	for _, s := range r.seats {
		if !s.booted {
			n++
		}
	}
	return n
}

// live returns the players still in the game in join order.
func (r *roster) live() []*seat {
	out := make([]*seat, 0, len(r.seats))
	for _, s := range r.seats {
		if !s.booted {
			out = append(out, s)
		}
	}
	return out
}

func (r *roster) names() []string {
	out := []string{}
	for _, s := range r.live() {
		out = append(out, s.name)
	}
	return out
}

// nameOf resolves a token to a player name, booted players included.
func (r *roster) nameOf(token string) string {
	for _, s := range r.seats {
		if s.token == token {
			return s.name
		}
	}
	return ""
}
