package pansweep

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pansweep/pansweep/internal/detectors"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "brands",
		Short: "List card brands and the prefixes they are classified by",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Brand", "Prefix", "Lengths")
			for _, r := range detectors.Rules() {
				lengths := make([]string, 0, len(r.Lengths))
				for _, n := range r.Lengths {
					lengths = append(lengths, strconv.Itoa(n))
				}
				if err := table.Append([]string{r.Name, r.Prefix.String(), strings.Join(lengths, ",")}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	rootCmd.AddCommand(cmd)
}
