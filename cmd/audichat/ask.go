package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/catalog"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/metrics"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/pipeline"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/respond"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question against the configured dataset",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		vocab, err := buildVocabulary()
		if err != nil {
			return err
		}
		engine := pipeline.New(vocab, catalog.NewCoreRegistry(), catalog.NewComplexRegistry(), metrics.NewMemoryRecorder())

		eval := engine.Answer(question, "cli", ds)
		if askJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(eval.Answer)
		}
		printAnswer(eval.Answer)
		if len(eval.Classification.Suggestions) > 0 && !eval.Classification.ShouldProcess {
			fmt.Println("\nEssayez par exemple:")
			for _, s := range eval.Classification.Suggestions {
				fmt.Printf("  - %s\n", s)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the raw answer object as JSON")
}

// printAnswer renders summary, explanation and the data table.
func printAnswer(a respond.Answer) {
	fmt.Println(a.Summary)
	fmt.Println(a.Explanation)
	if len(a.Data) == 0 {
		return
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	keys := rowKeys(a.Data[0])
	fmt.Fprintln(w, strings.Join(keys, "\t"))
	for _, row := range a.Data {
		cells := make([]string, 0, len(keys))
		for _, k := range keys {
			cells = append(cells, fmt.Sprint(row[k]))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

// rowKeys orders columns deterministically, display metadata last.
func rowKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		mi, mj := strings.HasPrefix(keys[i], "_"), strings.HasPrefix(keys[j], "_")
		if mi != mj {
			return !mi
		}
		return keys[i] < keys[j]
	})
	return keys
}
