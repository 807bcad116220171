package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/go-hr-session/rolegate"
	"github.com/jrsteele09/go-hr-session/sessions"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputYAML = "yaml"
	outputJSON = "json"
)

type userView struct {
	ID          string   `json:"id" yaml:"id"`
	Email       string   `json:"email" yaml:"email"`
	Name        string   `json:"name" yaml:"name"`
	Roles       []string `json:"roles" yaml:"roles"`
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

type sessionView struct {
	Authenticated bool      `json:"authenticated" yaml:"authenticated"`
	State         string    `json:"state" yaml:"state"`
	User          *userView `json:"user,omitempty" yaml:"user,omitempty"`
	Capabilities  []string  `json:"capabilities" yaml:"capabilities"`
}

func newSessionView(snap sessions.Snapshot) sessionView {
	v := sessionView{
		Authenticated: snap.Session.IsAuthenticated,
		State:         snap.State.String(),
		Capabilities:  snap.Capabilities.Names(),
	}
	if u := snap.Session.User; u != nil {
		v.User = &userView{
			ID:          u.ID,
			Email:       u.Email,
			Name:        u.FullName(),
			Roles:       u.RoleNames(),
			Permissions: u.Permissions,
		}
	}
	return v
}

func (v sessionView) text() string {
	if !v.Authenticated {
		return "Not signed in.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s>\n", v.User.Name, v.User.Email)
	fmt.Fprintf(&b, "id:           %s\n", v.User.ID)
	fmt.Fprintf(&b, "roles:        %s\n", strings.Join(v.User.Roles, ", "))
	fmt.Fprintf(&b, "capabilities: %s\n", strings.Join(v.Capabilities, ", "))
	return b.String()
}

type capabilitiesView map[string]bool

func newCapabilitiesView(flags rolegate.Flags) capabilitiesView {
	return flags.Map()
}

func (v capabilitiesView) text() string {
	var b strings.Builder
	for _, c := range rolegate.All {
		mark := "no"
		if v[c.String()] {
			mark = "yes"
		}
		fmt.Fprintf(&b, "%-18s %s\n", c.String(), mark)
	}
	return b.String()
}

type texter interface {
	text() string
}

func render(out io.Writer, format string, v texter) error {
	switch format {
	case outputText, "":
		_, err := io.WriteString(out, v.text())
		return err
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "[render] yaml")
		}
		return enc.Close()
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return errors.Errorf("unknown output format %q (want text, yaml or json)", format)
}
