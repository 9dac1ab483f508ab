// Package research defines the funeral-products research crew: who the
// agents are and what each of the nine tasks asks of them.
package research

import (
	"strings"

	"github.com/Protocol-Lattice/funeral-research/pkg/config"
	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
	"github.com/Protocol-Lattice/funeral-research/pkg/tools"
)

// Task IDs in execution order.
const (
	TaskFetchCompanies   = "fetch_companies"
	TaskInitialResearch  = "initial_research"
	TaskReview           = "review"
	TaskSpecWriting      = "spec_writing"
	TaskResearchPricing  = "research_pricing"
	TaskResearchCoverage = "research_coverage"
	TaskResearchReviews  = "research_reviews"
	TaskDataAnalysis     = "data_analysis"
	TaskWrite            = "write"
)

// Agents holds the eight crew members.
type Agents struct {
	GeneralResearcher  *crew.AgentSpec
	PricingResearcher  *crew.AgentSpec
	CoverageResearcher *crew.AgentSpec
	ReviewsResearcher  *crew.AgentSpec
	Analyst            *crew.AgentSpec
	SpecWriter         *crew.AgentSpec
	DataAnalyst        *crew.AgentSpec
	Writer             *crew.AgentSpec
}

// List returns the members in crew order.
func (a Agents) List() []*crew.AgentSpec {
	return []*crew.AgentSpec{
		a.GeneralResearcher,
		a.PricingResearcher,
		a.CoverageResearcher,
		a.ReviewsResearcher,
		a.Analyst,
		a.SpecWriter,
		a.DataAnalyst,
		a.Writer,
	}
}

func researcher(role, goal, backstory string) *crew.AgentSpec {
	return &crew.AgentSpec{
		Role:            role,
		Goal:            goal,
		Backstory:       backstory,
		Tools:           []tools.Ref{tools.WebSearch},
		AllowDelegation: true,
		Memory:          true,
		Verbose:         true,
	}
}

func member(role, goal, backstory string, refs ...tools.Ref) *crew.AgentSpec {
	return &crew.AgentSpec{
		Role:      role,
		Goal:      goal,
		Backstory: backstory,
		Tools:     refs,
		Memory:    true,
		Verbose:   true,
	}
}

// NewAgents builds fresh agent specs. Each call returns new pointers so two
// crews never share members.
func NewAgents() Agents {
	return Agents{
		GeneralResearcher: researcher(
			"General Researcher",
			"Gather broad information on each company to understand what data is available.",
			"You are a skilled researcher adept at finding detailed information on any topic.",
		),
		PricingResearcher: researcher(
			"Pricing Researcher",
			"Gather detailed pricing information for each company’s funeral products.",
			"You are an expert in extracting detailed pricing information.",
		),
		CoverageResearcher: researcher(
			"Coverage Researcher",
			"Gather detailed coverage information for each company’s funeral products.",
			"You are an expert in extracting detailed coverage information.",
		),
		ReviewsResearcher: researcher(
			"Customer Reviews Researcher",
			"Gather customer reviews and feedback for each company’s funeral products.",
			"You are skilled at finding and analyzing customer reviews and feedback.",
		),
		Analyst: member(
			"Analyst",
			"Review and collate the initial broad research data to determine specific data requirements.",
			"You are an expert in data analysis and can identify key data points from raw information.",
			tools.FileRead,
		),
		SpecWriter: member(
			"Spec Writer",
			"Write detailed specifications for the additional data search based on the analyst’s findings.",
			"You are a proficient writer skilled in drafting detailed research specifications.",
		),
		DataAnalyst: member(
			"Data Analyst",
			"Process and analyze the collected data to extract meaningful insights.",
			"You are an expert in data processing and analysis.",
		),
		Writer: member(
			"Writer",
			"Summarize the research findings and present them in a well-structured report with visualizations.",
			"You have a knack for writing clear and concise reports based on detailed research.",
		),
	}
}

// Tasks returns the nine tasks in execution order. url is the insurers list
// the first task scrapes; an empty url falls back to the regulator's list.
func Tasks(a Agents) []crew.TaskSpec {
	return []crew.TaskSpec{
		{
			ID:             TaskFetchCompanies,
			Description:    "Fetch the list of insurers from the provided URL.",
			ExpectedOutput: "A list of insurer names and details from the URL.",
			Tools:          []tools.Ref{tools.WebScrape},
			InputData:      map[string]string{"url": "{url}"},
		},
		{
			ID:             TaskInitialResearch,
			Description:    "Conduct initial broad research on each insurer to gather a wide range of information.",
			ExpectedOutput: "A collection of broad data on each insurer.",
			Tools:          []tools.Ref{tools.WebSearch},
			Agent:          a.GeneralResearcher,
		},
		{
			ID:             TaskReview,
			Description:    "Analyze the initial broad research data to determine specific details to collect in the next phase.",
			ExpectedOutput: "A detailed plan for specific data collection.",
			Tools:          []tools.Ref{tools.FileRead},
			Agent:          a.Analyst,
		},
		{
			ID:             TaskSpecWriting,
			Description:    "Write detailed specifications for the additional data search based on the analyst’s findings.",
			ExpectedOutput: "A detailed specification document for further research.",
			Agent:          a.SpecWriter,
		},
		{
			ID:             TaskResearchPricing,
			Description:    "Gather detailed pricing information for each company’s funeral products.",
			ExpectedOutput: "Detailed pricing information for each insurer.",
			Tools:          []tools.Ref{tools.WebSearch},
			Agent:          a.PricingResearcher,
		},
		{
			ID:             TaskResearchCoverage,
			Description:    "Gather detailed coverage information for each company’s funeral products.",
			ExpectedOutput: "Detailed coverage information for each insurer.",
			Tools:          []tools.Ref{tools.WebSearch},
			Agent:          a.CoverageResearcher,
		},
		{
			ID:             TaskResearchReviews,
			Description:    "Gather customer reviews and feedback for each company’s funeral products.",
			ExpectedOutput: "Customer reviews and feedback for each insurer.",
			Tools:          []tools.Ref{tools.WebSearch},
			Agent:          a.ReviewsResearcher,
		},
		{
			ID:             TaskDataAnalysis,
			Description:    "Process and analyze the collected data to extract meaningful insights.",
			ExpectedOutput: "Analyzed data with insights on funeral products.",
			Agent:          a.DataAnalyst,
		},
		{
			ID:             TaskWrite,
			Description:    "Summarize the refined research findings and present them in a detailed report with visualizations.",
			ExpectedOutput: "A comprehensive report on funeral products with visualizations.",
			Agent:          a.Writer,
			AsyncExecution: false,
		},
	}
}

// Build assembles the full crew. The insurers list URL comes from the
// kickoff inputs, see Inputs.
func Build() crew.Crew {
	agents := NewAgents()
	return crew.Crew{
		Agents: agents.List(),
		Tasks:  Tasks(agents),
	}
}

// Inputs are the kickoff inputs for a run against url, defaulting to the
// regulator's insurers list.
func Inputs(url string) map[string]string {
	if strings.TrimSpace(url) == "" {
		url = config.InsurersListURL
	}
	return map[string]string{"url": url}
}

// RequiredTools lists every tool the crew needs, in first-use order.
func RequiredTools(c crew.Crew) []tools.Ref {
	var refs []tools.Ref
	add := func(list []tools.Ref) {
		for _, r := range list {
			if !tools.Contains(refs, r) {
				refs = append(refs, r)
			}
		}
	}
	for _, t := range c.Tasks {
		add(t.Tools)
	}
	for _, a := range c.Agents {
		if a != nil {
			add(a.Tools)
		}
	}
	return refs
}
