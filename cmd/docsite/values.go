package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fwojciec/docsite"
)

// Run executes the values set command.
func (c *ValuesSetCmd) Run(deps *Dependencies) error {
	if err := checkKey(deps, c.Key); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}
	if strings.TrimSpace(c.Value) == "" {
		err := docsite.Errorf(docsite.EINVALID, "value for %s cannot be blank; use 'values unset'", c.Key)
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}
	if err := updateBindings(deps, func(b docsite.Bindings) { b.Set(c.Key, c.Value) }); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Set %s\n", c.Key)
	return nil
}

// Run executes the values unset command.
func (c *ValuesUnsetCmd) Run(deps *Dependencies) error {
	if err := checkKey(deps, c.Key); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}
	if err := updateBindings(deps, func(b docsite.Bindings) { b.Set(c.Key, "") }); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Unset %s\n", c.Key)
	return nil
}

// Run executes the values list command.
func (c *ValuesListCmd) Run(deps *Dependencies) error {
	b, err := docsite.LoadBindings(deps.Storage)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}

	if len(b) == 0 {
		fmt.Fprintln(deps.Stdout, "No values stored. Use 'docsite values set' to add one.")
		return nil
	}

	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(deps.Stdout, "%s=%s\n", k, b[k])
	}
	return nil
}

// Run executes the values clear command.
func (c *ValuesClearCmd) Run(deps *Dependencies) error {
	if c.All {
		if deps.Session == nil {
			err := docsite.Errorf(docsite.EINVALID, "no session database open")
			fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
			return err
		}
		if err := deps.Session.EndSession(deps.Ctx); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Ended session %q\n", deps.Session.Scope())
		return nil
	}

	if err := deps.Storage.Remove(docsite.PlaceholderStorageKey); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}
	fmt.Fprintln(deps.Stdout, "Cleared stored values")
	return nil
}

func checkKey(deps *Dependencies, key string) error {
	for _, p := range deps.Placeholders {
		if p.Key == key {
			return nil
		}
	}
	return docsite.Errorf(docsite.ENOTFOUND, "unknown placeholder %q", key)
}

func updateBindings(deps *Dependencies, fn func(docsite.Bindings)) error {
	b, err := docsite.LoadBindings(deps.Storage)
	if err != nil && docsite.ErrorCode(err) != docsite.EINVALID {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}
	fn(b)
	if err := docsite.SaveBindings(deps.Storage, b); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}
	return nil
}
