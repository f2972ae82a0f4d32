package main

import (
	"fmt"

	"github.com/fwojciec/docsite"
	"github.com/fwojciec/docsite/sqlite"
)

// Run executes the sessions command.
func (c *SessionsCmd) Run(deps *Dependencies) error {
	scopes, err := sqlite.Scopes(deps.Ctx, deps.DB, c.Limit, 0)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}

	if len(scopes) == 0 {
		fmt.Fprintln(deps.Stdout, "No sessions found.")
		return nil
	}

	for _, s := range scopes {
		fmt.Fprintf(deps.Stdout, "%s  %s  %d keys\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Entries)
	}
	return nil
}
