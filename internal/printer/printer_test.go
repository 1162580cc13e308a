package printer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCtx_Default(t *testing.T) {
	p := Ctx(context.Background())
	assert.NotNil(t, p)
	assert.Same(t, defaultPrinter, p)
}

func TestCtx_RoundTrip(t *testing.T) {
	var out, errOut bytes.Buffer
	p := New(&out, &errOut)

	ctx := WithPrinter(context.Background(), p)
	assert.Same(t, p, Ctx(ctx))
}

func TestPrinter_Streams(t *testing.T) {
	var out, errOut bytes.Buffer
	p := New(&out, &errOut)

	p.Successf("saved %s", "main")
	p.Infof("nothing to do")
	p.Printf("plain")
	p.Warnf("slow fetch")
	p.Errorf("bad ref %q", "nope")

	stdout := out.String()
	assert.Contains(t, stdout, "saved main")
	assert.Contains(t, stdout, "nothing to do")
	assert.Contains(t, stdout, "plain")
	assert.NotContains(t, stdout, "slow fetch")

	stderr := errOut.String()
	assert.Contains(t, stderr, "slow fetch")
	assert.Contains(t, stderr, `bad ref "nope"`)
	assert.NotContains(t, stderr, "saved main")
}

func TestPrinter_SuccessDetails(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &out)

	p.Success("State saved", "repo: acme/api", "branch: main")

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "State saved")
	assert.True(t, strings.HasPrefix(lines[1], "  "))
	assert.Contains(t, lines[1], "repo: acme/api")
}
