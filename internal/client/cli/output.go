package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
)

type printer struct {
	tw *tabwriter.Writer
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.tw, format+"\n", args...)
}

func (p *printer) row(cols ...string) {
	fmt.Fprintln(p.tw, strings.Join(cols, "\t"))
}

// print writes v as indented JSON with --json, otherwise renders text.
func (a *App) print(v any, text func(p *printer)) error {
	if a.json {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, string(b))
		return err
	}

	p := &printer{tw: tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)}
	text(p)
	return p.tw.Flush()
}
