package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
)

var (
	catalogTier        string
	catalogPartnership bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the modules each tier unlocks",
	Long: `Prints the module catalog. Each tier carries its own modules plus every
lower tier's; partnership_viability is added for partnership evaluations.

Example:
  launchclarity catalog --tier feasibility --partnership`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tiers := catalog.Tiers
		if catalogTier != "" {
			t, err := catalog.ParseTier(catalogTier)
			if err != nil {
				return err
			}
			tiers = []catalog.Tier{t}
		}
		return printCatalog(cmd.OutOrStdout(), tiers, catalogPartnership)
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogTier, "tier", "", "Only show this tier (discovery, feasibility, validation)")
	catalogCmd.Flags().BoolVar(&catalogPartnership, "partnership", false, "Include the partnership module")
}

var (
	tierStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	priceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	nameStyle   = lipgloss.NewStyle().Width(30)
	groupStyle  = lipgloss.NewStyle().Width(13).Foreground(lipgloss.Color("#888888"))
	openStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	lockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F44336"))
)

func printCatalog(w io.Writer, tiers []catalog.Tier, partnership bool) error {
	for i, t := range tiers {
		entries, err := catalog.For(t, partnership)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", tierStyle.Render(strings.ToUpper(string(t))),
			priceStyle.Render(fmt.Sprintf("$%d, %d modules", t.Price()/100, len(entries))))
		for _, e := range entries {
			state := openStyle.Render("unlocked")
			if e.IsLocked {
				state = lockedStyle.Render("locked")
			}
			fmt.Fprintf(w, "  %s%s%s\n",
				nameStyle.Render(string(e.ModuleType)),
				groupStyle.Render(e.ModuleType.Group()),
				state)
		}
	}
	return nil
}
