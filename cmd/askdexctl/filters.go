package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/askdex/internal/domain/query"
)

type filterFlags struct {
	primary   string
	secondary []string
	levelMin  int
	levelMax  int
	entities  []string
	keywords  []string
	strict    bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.primary, "category", "", "primary category filter, e.g. PRICING")
	fs.StringSliceVar(&f.secondary, "also", nil, "secondary categories")
	fs.IntVar(&f.levelMin, "level-min", 0, "minimum technical level (1-10)")
	fs.IntVar(&f.levelMax, "level-max", 0, "maximum technical level (1-10)")
	fs.StringSliceVar(&f.entities, "entity", nil, "required entities")
	fs.StringSliceVar(&f.keywords, "keyword", nil, "extra keyword terms")
	fs.BoolVar(&f.strict, "strict", false, "restrict to the primary category")
}

func (f *filterFlags) filters() query.Filters {
	out := query.Filters{
		PrimaryCategory:     f.primary,
		SecondaryCategories: f.secondary,
		RequiredEntities:    f.entities,
		Keywords:            f.keywords,
		Strict:              f.strict,
	}
	if f.levelMin > 0 || f.levelMax > 0 {
		out.TechnicalLevel = &query.LevelRange{Min: f.levelMin, Max: f.levelMax}
	}
	return out
}
