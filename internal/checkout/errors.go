package checkout

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrInvalidTransition = errors.New("checkout: invalid step transition")
	ErrEmptyCart         = errors.New("checkout: cart is empty")
	ErrBusy              = errors.New("checkout: payment in progress")
)

// ReturnPath is where the login flow sends the shopper back to.
const ReturnPath = "/checkout"

// LoginRedirect is returned when a step needs an authenticated user. The
// wizard keeps its draft and step.
type LoginRedirect struct {
	Location string
}

func (e *LoginRedirect) Error() string {
	return "checkout: login required, redirect to " + e.Location
}

func newLoginRedirect(loginPath string) *LoginRedirect {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &LoginRedirect{Location: loginPath + "?returnTo=" + url.QueryEscape(ReturnPath)}
}

// ValidationError maps json field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("checkout: invalid shipping details: %s", strings.Join(names, ", "))
}
