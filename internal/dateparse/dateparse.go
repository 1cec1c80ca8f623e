// Package dateparse resolves natural-language date phrases ("in 3 days",
// "next friday") to absolute times.
package dateparse

import (
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

type Parser struct {
	w *when.Parser
}

func New() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	return &Parser{w: w}
}

// Parse returns the date a phrase in the text resolves to relative to
// ref, or nil when no date phrase is found.
func (p *Parser) Parse(text string, ref time.Time) *time.Time {
	result, err := p.w.Parse(text, ref)
	if err != nil || result == nil {
		return nil
	}

	t := result.Time
	return &t
}
