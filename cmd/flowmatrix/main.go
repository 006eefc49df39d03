// Flow matrix tool - prints the nectar rate each configured profile pair
// produces when one establishes a flow with the other.
//
// Usage: go run ./cmd/flowmatrix [-config path]
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/pthm-cable/beehive/config"
	"github.com/pthm-cable/beehive/nectar"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	templates, err := nectar.Templates(cfg)
	if err != nil {
		slog.Error("failed to build templates", "error", err)
		os.Exit(1)
	}
	names := cfg.Derived.ProfileNames

	fmt.Println("rows establish with columns; each cell is the matched rule, then self rate / peer rate per second")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "self \\ peer\t")
	for _, n := range names {
		fmt.Fprintf(w, "%s (%s)\t", n, templates[n].Kind)
	}
	fmt.Fprintln(w)

	for _, self := range names {
		fmt.Fprintf(w, "%s\t", self)
		for _, peer := range names {
			fmt.Fprintf(w, "%s\t", cell(templates[self], templates[peer]))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

// cell establishes a flow between fresh profiles and formats both rates.
func cell(selfT, peerT nectar.Template) string {
	self, peer := nectar.NewProfile(selfT), nectar.NewProfile(peerT)
	f, err := nectar.Establish(self, peer)
	if errors.Is(err, nectar.ErrNoMatchingRule) {
		return "-"
	}
	if err != nil {
		return "error"
	}
	defer f.Release()
	return fmt.Sprintf("%s %s / %s", rule(f), signedRate(self), signedRate(peer))
}

// rule names the rules a flow matched.
func rule(f *nectar.Flow) string {
	_, recv := f.Receiver()
	_, send := f.Sender()
	switch {
	case recv && send:
		return "both"
	case recv:
		return "recv"
	}
	return "send"
}

func signedRate(p *nectar.Profile) string {
	switch p.State() {
	case nectar.StateIncreasing:
		return fmt.Sprintf("+%g", p.Rate())
	case nectar.StateDecreasing:
		return fmt.Sprintf("-%g", p.Rate())
	}
	return "0"
}
