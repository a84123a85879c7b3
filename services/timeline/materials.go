package timeline

import (
	"sort"

	"github.com/sahilchouksey/campus-timeline/model"
)

// ModuleListing is the result of a module discovery. UsedFallback is set
// when no module belonged to the requested course and Modules holds the
// whole catalog instead.
type ModuleListing struct {
	CourseID     string         `json:"course_id"`
	Modules      []model.Module `json:"modules"`
	UsedFallback bool           `json:"used_fallback"`
	Notices      []Notice       `json:"notices,omitempty"`
}

// MaterialsForModule filters materials by module id. No match is an empty
// list, never a fallback.
func MaterialsForModule(moduleID string, materials []model.Material) []model.Material {
	out := []model.Material{}
	if moduleID == "" {
		return out
	}
	for _, m := range materials {
		if m.ModuleID == moduleID {
			out = append(out, m)
		}
	}
	return out
}

// ModulesForCourse filters modules by course id, falling back to every
// module when none match.
func ModulesForCourse(courseID string, modules []model.Module) ModuleListing {
	listing := ModuleListing{CourseID: courseID, Modules: []model.Module{}}
	if courseID != "" {
		for _, m := range modules {
			if m.CourseID == courseID {
				listing.Modules = append(listing.Modules, m)
			}
		}
	}
	if len(listing.Modules) == 0 && len(modules) > 0 {
		listing.Modules = append(listing.Modules, modules...)
		listing.UsedFallback = true
	}
	return listing
}

// SortMaterials orders newest first, then by title. Materials with no
// known creation time go last.
func SortMaterials(materials []model.Material) {
	sort.SliceStable(materials, func(i, j int) bool {
		a, b := materials[i], materials[j]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt > b.CreatedAt
		}
		return a.Title < b.Title
	})
}
