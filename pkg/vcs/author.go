package vcs

import (
	"fmt"
	"strings"
)

// Author is a "Name <email>" identity as recorded in commit metadata.
// Either part may be empty; the checks that care validate presence.
type Author struct {
	Name  string
	Email string
}

// ParseAuthor splits the conventional "Name <email>" form. A missing angle
// bracket section yields an author with only a name.
func ParseAuthor(s string) Author {
	s = strings.TrimSpace(s)
	open := strings.LastIndexByte(s, '<')
	close := strings.LastIndexByte(s, '>')
	if open == -1 || close == -1 || close < open {
		return Author{Name: s}
	}
	return Author{
		Name:  strings.TrimSpace(s[:open]),
		Email: s[open+1 : close],
	}
}

// Username returns the local part of the email address, the conventional
// census username.
func (a Author) Username() string {
	user, _, _ := strings.Cut(a.Email, "@")
	return user
}

// Domain returns the host part of the email address, or "" when absent.
func (a Author) Domain() string {
	_, host, ok := strings.Cut(a.Email, "@")
	if !ok {
		return ""
	}
	return host
}

func (a Author) String() string {
	if a.Email == "" {
		return a.Name
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}
