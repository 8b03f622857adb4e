package console_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	// Packages
	console "github.com/mutablelogic/go-datahub/pkg/console"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	assert "github.com/stretchr/testify/assert"
)

func TestUI_plain(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(&buf)

	ui.SetSaveDisabled(true)
	assert.True(t, ui.SaveDisabled())
	ui.Start("report.csv", 500000)
	ui.Update(0.5)
	ui.Update(1)
	ui.Done()
	ui.Notify(schema.LevelSuccess, "Resource updated successfully")
	ui.SetSaveDisabled(false)
	ui.Navigate("/dataset/ds-1")

	assert.False(t, ui.SaveDisabled())
	assert.Equal(t, "/dataset/ds-1", ui.Target())
	assert.Equal(t, "  488.3K  report.csv\n[ok]  Resource updated successfully\n", buf.String())
}

func TestUI_terminal(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(&buf, console.WithTerminal(true))

	ui.Start("report.csv", 2048)
	ui.Update(0.5)
	ui.Update(0.501)
	ui.Notify(schema.LevelInfo, "File already exists in storage")
	ui.Done()

	out := buf.String()
	assert.Contains(t, out, "     0%")
	assert.Contains(t, out, "    50%")

	// Drawn once on change and once after the notification
	assert.Equal(t, 2, strings.Count(out, "    50%"), out)
	assert.Contains(t, out, "[info]\x1b[0m  File already exists in storage\n")
	assert.True(t, strings.HasSuffix(out, "\r\x1b[K    2.0K  \x1b[1mreport.csv\x1b[0m\n"))
}

func TestUI_fail(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(&buf)

	ui.Start("report.csv", 10)
	ui.Fail(errors.New("quota exceeded"))
	ui.Done()
	ui.Notify(schema.LevelError, "quota exceeded")
	assert.Equal(t, "[error]  quota exceeded\n", buf.String())
}

func TestUI_opener(t *testing.T) {
	var buf bytes.Buffer
	var opened []string
	ui := console.New(&buf, console.WithOpener(func(url string) error {
		opened = append(opened, url)
		return errors.New("no browser")
	}))

	ui.Navigate("https://demo.ckan.org/dataset/ds-1")
	assert.Equal(t, []string{"https://demo.ckan.org/dataset/ds-1"}, opened)
	assert.Contains(t, buf.String(), "[warn]  unable to open https://demo.ckan.org/dataset/ds-1: no browser")
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0B"},
		{1023, "1023B"},
		{1024, "1.0K"},
		{500000, "488.3K"},
		{5 * 1024 * 1024, "5.0M"},
		{3 * 1024 * 1024 * 1024, "3.0G"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, console.HumanSize(test.n))
	}
}
