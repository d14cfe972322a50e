// File: command.go
// Title: Command Value
// Description: Immutable command produced by the parser.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation

package command

import (
	"encoding/json"
	"errors"
	"strings"
)

// Command is a recognized directive: a name and its ordered parameters.
// A Command never changes after New returns it.
type Command struct {
	name   string
	params []Parameter
}

// New builds a command, copying params
func New(name string, params ...Parameter) *Command {
	cp := make([]Parameter, len(params))
	copy(cp, params)
	return &Command{name: name, params: cp}
}

// Name returns the command name
func (c *Command) Name() string { return c.name }

// Params returns a copy of the parameter list in source order
func (c *Command) Params() []Parameter {
	cp := make([]Parameter, len(c.params))
	copy(cp, c.params)
	return cp
}

// Len returns the number of parameters
func (c *Command) Len() int { return len(c.params) }

// Param returns the i-th parameter
func (c *Command) Param(i int) (Parameter, bool) {
	if i < 0 || i >= len(c.params) {
		return Parameter{}, false
	}
	return c.params[i], true
}

// Equal reports whether both commands have the same name and parameters
func (c *Command) Equal(other *Command) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.name != other.name || len(c.params) != len(other.params) {
		return false
	}
	for i := range c.params {
		if c.params[i] != other.params[i] {
			return false
		}
	}
	return true
}

// String renders the command in KoiLang form with a single sentinel
func (c *Command) String() string {
	var sb strings.Builder
	sb.WriteByte('#')
	sb.WriteString(c.name)
	for _, p := range c.params {
		sb.WriteByte(' ')
		sb.WriteString(p.Raw())
	}
	return sb.String()
}

type commandJSON struct {
	Name   string      `json:"name"`
	Params []Parameter `json:"params"`
}

// MarshalJSON implements json.Marshaler
func (c *Command) MarshalJSON() ([]byte, error) {
	params := c.params
	if params == nil {
		params = []Parameter{}
	}
	return json.Marshal(commandJSON{Name: c.name, Params: params})
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Command) UnmarshalJSON(data []byte) error {
	var raw commandJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Name == "" || strings.ContainsAny(raw.Name, " \t\r\n") {
		return errors.New("unmarshal command: name must be a non-empty token")
	}
	c.name = raw.Name
	c.params = raw.Params
	if c.params == nil {
		c.params = []Parameter{}
	}
	return nil
}
