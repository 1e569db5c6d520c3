// ABOUTME: Bottleneck analysis for infeasible capacity candidates
// ABOUTME: Ranks table sizes and the mixed seating pool by demand-to-capacity ratio

package models

import (
	"fmt"
	"sort"
)

// ResourceUtilization represents the demand placed on a single seating resource
type ResourceUtilization struct {
	Name           string  `json:"name"`
	UsedPercent    float64 `json:"used_percent"`
	TotalCapacity  int     `json:"total_capacity"`
	UsedCapacity   int     `json:"used_capacity"`
	Unit           string  `json:"unit"`
	IsConstraining bool    `json:"is_constraining"`
	// NoCapacity is set when demand lands on a resource with nothing to serve it.
	NoCapacity      bool    `json:"no_capacity,omitempty"`
	TopPersona      string  `json:"top_persona,omitempty"`
	TopPersonaShare float64 `json:"top_persona_share,omitempty"`
}

func (r ResourceUtilization) overloaded() bool {
	return r.NoCapacity || r.UsedPercent > 100
}

// BottleneckAnalysis represents the complete bottleneck analysis result
type BottleneckAnalysis struct {
	Resources            []ResourceUtilization `json:"resources"`
	ConstrainingResource string                `json:"constraining_resource"`
	TopContributor       string                `json:"top_contributor,omitempty"`
	Summary              string                `json:"summary"`
}

// RankResourcesByUtilization sorts resources by utilization percentage in descending order
// and marks the highest utilization resource as constraining. Resources with demand but
// no capacity rank ahead of everything else.
func RankResourcesByUtilization(resources []ResourceUtilization) []ResourceUtilization {
	if len(resources) == 0 {
		return resources
	}

	ranked := make([]ResourceUtilization, len(resources))
	copy(ranked, resources)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].NoCapacity != ranked[j].NoCapacity {
			return ranked[i].NoCapacity
		}
		return ranked[i].UsedPercent > ranked[j].UsedPercent
	})

	for i := range ranked {
		ranked[i].IsConstraining = (i == 0)
	}

	return ranked
}

// GetConstrainingResource returns the resource with the highest utilization
func GetConstrainingResource(resources []ResourceUtilization) *ResourceUtilization {
	if len(resources) == 0 {
		return nil
	}

	ranked := RankResourcesByUtilization(resources)
	return &ranked[0]
}

// AnalyzeBottleneck ranks the resources and names the constraint and its top persona.
func AnalyzeBottleneck(resources []ResourceUtilization) BottleneckAnalysis {
	ranked := RankResourcesByUtilization(resources)

	analysis := BottleneckAnalysis{
		Resources: ranked,
	}

	if len(ranked) > 0 {
		analysis.ConstrainingResource = ranked[0].Name
		analysis.TopContributor = ranked[0].TopPersona
	}
	analysis.Summary = buildSummary(ranked)

	return analysis
}

// buildSummary generates a human-readable summary of the bottleneck analysis
func buildSummary(ranked []ResourceUtilization) string {
	if len(ranked) == 0 {
		return "No resources to analyze."
	}

	c := ranked[0]
	switch {
	case c.NoCapacity && c.TopPersona != "" && (c.Unit == "" || c.Unit == "tables"):
		return fmt.Sprintf("%s need %s tables but none are available.", c.TopPersona, c.Name)
	case c.NoCapacity && c.TopPersona != "":
		return fmt.Sprintf("%s need %s but no %s are available.", c.TopPersona, c.Name, c.Unit)
	case c.NoCapacity:
		return fmt.Sprintf("%s demand has no capacity to serve it.", c.Name)
	case c.TopPersona != "" && c.overloaded():
		return fmt.Sprintf("%s drive %s demand to %.0f%% of capacity.", c.TopPersona, c.Name, c.UsedPercent)
	case c.TopPersona != "":
		return fmt.Sprintf("%s is the tightest resource at %.0f%% of capacity, led by %s.", c.Name, c.UsedPercent, c.TopPersona)
	default:
		return fmt.Sprintf("%s is the tightest resource at %.0f%% of capacity.", c.Name, c.UsedPercent)
	}
}
