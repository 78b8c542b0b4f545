package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/viber"
)

type endpointInfo struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Method string `json:"method"`
}

func newEndpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "endpoints",
		Aliases: []string{"ep"},
		Short:   "List API endpoints accepted by 'vb call'",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var items []endpointInfo
			for _, ep := range viber.Endpoints() {
				items = append(items, endpointInfo{Path: ep.Path, Name: ep.DottedName(), Method: ep.MethodName()})
			}
			if isJSON(cmd) {
				return printJSON(cmd, items)
			}
			f := newFormatter(cmd)
			f.StartTable("PATH", "NAME", "METHOD")
			for _, it := range items {
				f.Row("/pa/"+it.Path, it.Name, it.Method)
			}
			return f.EndTable()
		}),
	}
}

// endpointNames is used for shell completion of 'vb call'.
func endpointNames(toComplete string) []string {
	var out []string
	for _, ep := range viber.Endpoints() {
		if strings.HasPrefix(ep.Path, toComplete) {
			out = append(out, ep.Path)
		}
	}
	return out
}
