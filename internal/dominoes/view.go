package dominoes

// Sanitize derives the projection of the state safe to push to the given
// viewing seat: every other seat's hand and the boneyard become count-only
// placeholders. The board, scores and log are public.
//
// Sanitize operates on an independent copy and is idempotent.
func Sanitize(s State, viewer string) State {
	out := s.clone()

	if out.Boneyard != nil {
		out.BoneyardCount = len(out.Boneyard)
		out.Boneyard = nil
	}

	if out.HandCounts == nil {
		out.HandCounts = make(map[string]int, len(out.Seats))
	}
	for seat, hand := range out.Hands {
		if seat == viewer {
			continue
		}
		if hand != nil {
			out.HandCounts[seat] = len(hand)
			out.Hands[seat] = nil
		}
	}
	return out
}
