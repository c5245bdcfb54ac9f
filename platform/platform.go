// Package platform classifies the runtime a transaction is submitted from.
// The classification selects the signing protocol, so it is computed once
// and then passed to the submission pipeline as a fixed value.
package platform

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Environment is the runtime tag that drives protocol selection.
type Environment int

const (
	// Desktop is a desktop browser or any context with an in-page wallet.
	Desktop Environment = iota
	// InAppBrowser is a mobile wallet's own browser with an injected provider.
	InAppBrowser
	// DeepLinkMobile is a mobile browser reaching an external wallet app.
	DeepLinkMobile
)

var environmentNames = map[Environment]string{
	Desktop:        "desktop",
	InAppBrowser:   "in_app_browser",
	DeepLinkMobile: "deep_link_mobile",
}

func (e Environment) String() string {
	if name, ok := environmentNames[e]; ok {
		return name
	}
	return fmt.Sprintf("environment(%d)", int(e))
}

// Atomic reports whether the environment requires the single-call
// sign-and-send protocol.
func (e Environment) Atomic() bool {
	return e == DeepLinkMobile
}

// ParseEnvironment maps a name produced by String back to its Environment.
func ParseEnvironment(s string) (Environment, error) {
	for env, name := range environmentNames {
		if strings.EqualFold(s, name) {
			return env, nil
		}
	}
	return Desktop, fmt.Errorf("%w: %q", ErrUnknownEnvironment, s)
}

var mobileUA = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// walletBrowserMarkers identify wallet in-app browsers by user agent.
var walletBrowserMarkers = []string{"Phantom", "Solflare", "Backpack"}

// Signals are the host observations classification is based on.
type Signals struct {
	UserAgent        string
	InjectedWallet   bool // an in-page wallet provider is present
	AdapterReachable bool // an external wallet app can be reached by deep link
}

// Mobile reports whether the user agent has a mobile form factor.
func (s Signals) Mobile() bool {
	return mobileUA.MatchString(s.UserAgent)
}

// injected reports an in-page provider, either observed directly or implied
// by a wallet browser user agent.
func (s Signals) injected() bool {
	if s.InjectedWallet {
		return true
	}
	for _, m := range walletBrowserMarkers {
		if strings.Contains(s.UserAgent, m) {
			return true
		}
	}
	return false
}

// Classify maps signals to an Environment:
//
//	injected wallet + mobile                    -> InAppBrowser
//	mobile, no injected wallet, adapter present -> DeepLinkMobile
//	otherwise                                   -> Desktop
func Classify(s Signals) Environment {
	mobile := s.Mobile()
	switch {
	case mobile && s.injected():
		return InAppBrowser
	case mobile && s.AdapterReachable:
		return DeepLinkMobile
	default:
		return Desktop
	}
}

// Classifier inspects the host once and memoizes the result for the life of
// the process. Re-classification is not possible: the protocol must not
// change while a transaction is in flight.
type Classifier struct {
	detect func() Signals

	once sync.Once
	env  Environment
	sig  Signals
}

// NewClassifier creates a Classifier that calls detect on first use.
func NewClassifier(detect func() Signals) *Classifier {
	return &Classifier{detect: detect}
}

// Fixed returns a Classifier pinned to env, for explicit overrides.
func Fixed(env Environment) *Classifier {
	c := &Classifier{env: env}
	c.once.Do(func() {})
	return c
}

func (c *Classifier) load() {
	c.once.Do(func() {
		if c.detect != nil {
			c.sig = c.detect()
		}
		c.env = Classify(c.sig)
	})
}

// Environment returns the memoized classification.
func (c *Classifier) Environment() Environment {
	c.load()
	return c.env
}

// Signals returns the observations the classification was made from.
func (c *Classifier) Signals() Signals {
	c.load()
	return c.sig
}
