package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/hardneg/internal/config"
	"github.com/matsen/hardneg/internal/corpus"
	"github.com/matsen/hardneg/internal/storage"
	"github.com/matsen/hardneg/internal/textnorm"
)

var (
	augmentStrip bool
	augmentFold  bool
)

func init() {
	rootCmd.AddCommand(augmentCmd)

	augmentCmd.Flags().BoolVar(&augmentStrip, "strip", false, "Add punctuation-stripped query variants")
	augmentCmd.Flags().BoolVar(&augmentFold, "fold", false, "Add diacritic-folded query variants")
}

var augmentCmd = &cobra.Command{
	Use:   "augment",
	Short: "Add normalized query variants to the corpus",
	Long: `Add normalized query variants to the corpus.

Each transform rewrites the query text of every original pair and appends
the result as a new pair sharing the original's answer. Variants that
match their original query, or duplicate an existing variant, are skipped,
so running augment twice adds nothing.

With no flags both transforms are applied.`,
	RunE: runAugment,
}

// AugmentResult is the response for the augment command.
type AugmentResult struct {
	Status     string   `json:"status"`
	Transforms []string `json:"transforms"`
	Added      int      `json:"added"`
	Total      int      `json:"total"`
}

// augmentTransforms returns the transforms selected by the flags,
// defaulting to all of them.
func augmentTransforms() []corpus.Transform {
	strip := corpus.Transform{Tag: "augment:strip", Apply: textnorm.Strip}
	fold := corpus.Transform{Tag: "augment:fold", Apply: textnorm.Fold}

	if !augmentStrip && !augmentFold {
		return []corpus.Transform{strip, fold}
	}

	var transforms []corpus.Transform
	if augmentStrip {
		transforms = append(transforms, strip)
	}
	if augmentFold {
		transforms = append(transforms, fold)
	}
	return transforms
}

func runAugment(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	c := mustLoadCorpus(root)

	if c.Len() == 0 {
		exitWithError(ExitDataError, "corpus is empty\n\nAdd pairs with 'hardneg corpus add' first.")
	}

	transforms := augmentTransforms()
	added := c.Augment(transforms)

	if added > 0 {
		if err := storage.WritePairs(config.PairsPath(root), c.Pairs()); err != nil {
			exitWithError(ExitError, "writing pairs: %v", err)
		}
		rebuildCache(root)
	}

	tags := make([]string, len(transforms))
	for i, tr := range transforms {
		tags[i] = tr.Tag
	}

	result := AugmentResult{
		Status:     "augmented",
		Transforms: tags,
		Added:      added,
		Total:      c.Len(),
	}

	if humanOutput {
		fmt.Printf("Added %d query variants, corpus now has %d pairs\n", added, result.Total)
	} else {
		outputJSON(result)
	}

	return nil
}
