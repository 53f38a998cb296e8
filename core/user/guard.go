package user

type GuardDecision int

const (
	GuardAllow    GuardDecision = iota // render the requested view
	GuardLoading                       // render the loading placeholder
	GuardRedirect                      // redirect to EntryPath
)

func (d GuardDecision) String() string {
	switch d {
	case GuardAllow:
		return "allow"
	case GuardLoading:
		return "loading"
	case GuardRedirect:
		return "redirect"
	}
	return "unknown"
}

// Guard gates identity-requiring views. It is a pure function of the session state.
func Guard(loading, authenticated bool) GuardDecision {
	switch {
	case loading:
		return GuardLoading
	case !authenticated:
		return GuardRedirect
	default:
		return GuardAllow
	}
}
