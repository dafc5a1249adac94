package output

import (
	"io"

	"github.com/fatih/color"
	"github.com/oldmonad/cvmInventory/pkg/cloud"
	"github.com/olekukonko/tablewriter"
)

// PrintRegions renders the provider's region list as a table, for the
// regions subcommand.
func PrintRegions(w io.Writer, regions []cloud.Region) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Region", "Description", "State"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, region := range regions {
		state := region.State
		if state == "AVAILABLE" || state == "opt-in-not-required" {
			state = green(state)
		} else if state != "" {
			state = yellow(state)
		}
		table.Append([]string{region.Name, region.Description, state})
	}

	table.Render()
}
