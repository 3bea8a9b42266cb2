// Package guard decides what a page request may see given the session state.
package guard

import "github.com/ToonLance/freelancer-nest-profile/internal/account"

type Outcome int

const (
	Loading Outcome = iota
	RedirectLogin
	RedirectSetup
	Render
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect_login"
	case RedirectSetup:
		return "redirect_setup"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Evaluate maps a session snapshot to the outcome for a protected page.
// It is pure: the same inputs always give the same outcome.
func Evaluate(snap account.Snapshot, requireUsername bool) Outcome {
	switch {
	case snap.Initializing:
		return Loading
	case snap.Identity == nil:
		return RedirectLogin
	case requireUsername && !snap.Profile.HasUsername():
		return RedirectSetup
	default:
		return Render
	}
}

// Destinations is where redirect outcomes send the browser.
type Destinations struct {
	Login         string
	SetupUsername string
}

var DefaultDestinations = Destinations{
	Login:         "/login",
	SetupUsername: "/setup-username",
}

// Location returns the redirect target for o, or "" when o is not a redirect.
func (d Destinations) Location(o Outcome) string {
	switch o {
	case RedirectLogin:
		return d.Login
	case RedirectSetup:
		return d.SetupUsername
	default:
		return ""
	}
}

type Policy struct {
	Protected       bool
	RequireUsername bool
}

// Policies lists every page route and its guard policy.
var Policies = map[string]Policy{
	"/":                  {},
	"/login":             {},
	"/signup":            {},
	"/setup-username":    {Protected: true},
	"/dashboard":         {Protected: true, RequireUsername: true},
	"/profile/:username": {},
}
