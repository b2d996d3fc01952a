package classifier

import (
	"github.com/dvloznov/finla/internal/domain"
)

// CategoryInfo is the display summary of a category.
type CategoryInfo struct {
	Name     domain.Category `json:"name"`
	Glyph    string          `json:"emoji"`
	Keywords []string        `json:"keywords"`
	Priority int             `json:"priority"`
	Typical  *AmountRange    `json:"typical_range,omitempty"`
}

const infoKeywordCount = 5

func lookup(c domain.Category) *CategoryDef {
	for i := range taxonomy {
		if taxonomy[i].Category == c {
			return &taxonomy[i]
		}
	}
	return nil
}

// Info returns the glyph, priority and first few keywords of c.
// Unknown categories are reported as others.
func Info(c domain.Category) CategoryInfo {
	def := lookup(c)
	if def == nil {
		return CategoryInfo{
			Name:     domain.CategoryOthers,
			Glyph:    othersGlyph,
			Keywords: []string{},
			Priority: othersPriority,
		}
	}

	n := infoKeywordCount
	if len(def.Keywords) < n {
		n = len(def.Keywords)
	}
	return CategoryInfo{
		Name:     def.Category,
		Glyph:    def.Glyph,
		Keywords: append([]string{}, def.Keywords[:n]...),
		Priority: def.Priority,
		Typical:  def.Typical,
	}
}

// Categories returns every category in table order, others last.
func Categories() []domain.Category {
	return append([]domain.Category{}, domain.AllCategories...)
}

// Keywords returns the full keyword list of c, or nil for others and unknown names.
func Keywords(c domain.Category) []string {
	def := lookup(c)
	if def == nil {
		return nil
	}
	return append([]string{}, def.Keywords...)
}
