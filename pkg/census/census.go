// Package census maps usernames to project roles. The check engine consults
// it for reviewer crediting and committer validation; the data itself comes
// from an XML census file maintained outside the repository.
package census

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Role is a project membership level. Roles are ordered: lead outranks
// reviewer outranks committer outranks author outranks contributor.
type Role int

const (
	Unknown Role = iota
	Contributor
	Author
	Committer
	Reviewer
	Lead
)

func (r Role) String() string {
	switch r {
	case Lead:
		return "lead"
	case Reviewer:
		return "reviewer"
	case Committer:
		return "committer"
	case Author:
		return "author"
	case Contributor:
		return "contributor"
	}
	return "unknown"
}

// AtLeast reports whether r carries at least the rank of other.
func (r Role) AtLeast(other Role) bool {
	return r >= other
}

// Census resolves usernames to their role within each project. Lookup is
// case-insensitive on the username.
type Census struct {
	people   map[string]Person
	projects map[string]map[string]Role // project -> username -> role
}

// Person is one census entry.
type Person struct {
	Username string
	FullName string
}

type xmlCensus struct {
	XMLName  xml.Name     `xml:"census"`
	People   []xmlPerson  `xml:"person"`
	Projects []xmlProject `xml:"project"`
}

type xmlPerson struct {
	Name     string `xml:"name,attr"`
	FullName string `xml:"full-name"`
}

type xmlProject struct {
	Name         string   `xml:"name,attr"`
	Leads        []xmlRef `xml:"lead"`
	Reviewers    []xmlRef `xml:"reviewer"`
	Committers   []xmlRef `xml:"committer"`
	Authors      []xmlRef `xml:"author"`
	Contributors []xmlRef `xml:"contributor"`
}

type xmlRef struct {
	Person string `xml:"person,attr"`
}

// Parse reads a single-file XML census.
func Parse(r io.Reader) (*Census, error) {
	var doc xmlCensus
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse census: %w", err)
	}

	c := &Census{
		people:   make(map[string]Person, len(doc.People)),
		projects: make(map[string]map[string]Role, len(doc.Projects)),
	}
	for _, p := range doc.People {
		c.people[normalize(p.Name)] = Person{Username: p.Name, FullName: p.FullName}
	}
	for _, proj := range doc.Projects {
		members := make(map[string]Role)
		assign := func(refs []xmlRef, role Role) error {
			for _, ref := range refs {
				key := normalize(ref.Person)
				if _, known := c.people[key]; !known {
					return fmt.Errorf("parse census: project %q references unknown person %q", proj.Name, ref.Person)
				}
				if members[key] < role {
					members[key] = role
				}
			}
			return nil
		}
		// Highest role wins when a person is listed more than once.
		if err := assign(proj.Contributors, Contributor); err != nil {
			return nil, err
		}
		if err := assign(proj.Authors, Author); err != nil {
			return nil, err
		}
		if err := assign(proj.Committers, Committer); err != nil {
			return nil, err
		}
		if err := assign(proj.Reviewers, Reviewer); err != nil {
			return nil, err
		}
		if err := assign(proj.Leads, Lead); err != nil {
			return nil, err
		}
		c.projects[normalize(proj.Name)] = members
	}
	return c, nil
}

// Load parses the census file at path.
func Load(path string) (*Census, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load census: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RoleOf returns username's role in project, or Unknown when the username is
// not a project member.
func (c *Census) RoleOf(username, project string) Role {
	members, found := c.projects[normalize(project)]
	if !found {
		return Unknown
	}
	return members[normalize(username)]
}

// Contains reports whether username exists anywhere in the census.
func (c *Census) Contains(username string) bool {
	_, found := c.people[normalize(username)]
	return found
}

// FullName returns the person's full name when known.
func (c *Census) FullName(username string) (string, bool) {
	p, found := c.people[normalize(username)]
	return p.FullName, found
}
