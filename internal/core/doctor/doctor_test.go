package doctor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticCheck struct {
	name  string
	items []CheckItem
}

func (c staticCheck) Name() string { return c.name }

func (c staticCheck) Run(_ context.Context) Result {
	return Result{Name: c.name, Items: c.items}
}

func TestRunAll_PreservesOrder(t *testing.T) {
	checks := []Check{
		staticCheck{name: "first"},
		staticCheck{name: "second"},
	}

	results := RunAll(context.Background(), checks)

	assert.Equal(t, []Result{{Name: "first"}, {Name: "second"}}, results)
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Items: []CheckItem{
			{Status: StatusPass},
			{Status: StatusPass},
		}},
		{Items: []CheckItem{
			{Status: StatusWarn, Fixable: true},
			{Status: StatusFail, Fixable: true},
			{Status: StatusFail},
			{Status: StatusPass, Fixable: true},
		}},
	}

	tally := Summarize(results)

	assert.Equal(t, 3, tally.Passed)
	assert.Equal(t, 1, tally.Warned)
	assert.Equal(t, 2, tally.Failed)

	// A fixable item that already passes needs no fixing.
	assert.Equal(t, 2, tally.Fixable)
}
