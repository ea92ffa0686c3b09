package rules

import (
	"sync/atomic"
)

// #region provider

// Provider hands out the current rule table and supports atomic hot reload:
// sessions mid-evaluation keep the table pointer they grabbed, so a reload
// never exposes a half-updated rule set.
type Provider struct {
	path    string
	current atomic.Pointer[Table]
}

// NewProvider loads the rules file once and wraps it for shared access.
func NewProvider(path string) (*Provider, error) {
	table, err := Load(path)
	if err != nil {
		return nil, err
	}
	p := &Provider{path: path}
	p.current.Store(table)
	return p, nil
}

// NewStaticProvider wraps an already-built table (fixtures, tests).
func NewStaticProvider(table *Table) *Provider {
	p := &Provider{}
	p.current.Store(table)
	return p
}

// Table returns the current immutable rule table.
func (p *Provider) Table() *Table {
	return p.current.Load()
}

// Reload re-reads the rules file and swaps the table in one step.
// On failure the previous table stays active.
func (p *Provider) Reload() error {
	if p.path == "" {
		return nil
	}
	table, err := Load(p.path)
	if err != nil {
		return err
	}
	p.current.Store(table)
	return nil
}

// #endregion provider
