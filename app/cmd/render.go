package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lexcodex/swarmcouncil/framework"
)

var (
	colorPrimary   = lipgloss.Color("39")
	colorSecondary = lipgloss.Color("86")
	colorSuccess   = lipgloss.Color("42")
	colorWarning   = lipgloss.Color("220")
	colorError     = lipgloss.Color("196")
	colorDim       = lipgloss.Color("241")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorSecondary).
				MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	progressStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)
)

// renderReport formats a run snapshot for the terminal.
func renderReport(state *framework.RunState) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("AI Swarm Council: "+state.Topic) + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("run %s · phase %s", state.ID, state.Phase)) + "\n")

	if len(state.Explorations) > 0 {
		b.WriteString(sectionHeaderStyle.Render(stageHeading(framework.StageExploration)) + "\n")
		for _, e := range state.Explorations {
			b.WriteString(renderExploration(e) + "\n")
		}
	}
	if len(state.Reviews) > 0 {
		b.WriteString(sectionHeaderStyle.Render(stageHeading(framework.StageReview)) + "\n")
		for _, r := range state.Reviews {
			b.WriteString(renderReview(r) + "\n")
		}
	}
	if state.Synthesis != nil {
		b.WriteString(sectionHeaderStyle.Render(stageHeading(framework.StageSynthesis)) + "\n")
		b.WriteString(renderSynthesis(state.Synthesis) + "\n")
	}
	if state.Proposal != nil {
		b.WriteString(sectionHeaderStyle.Render(stageHeading(framework.StageProposal)) + "\n")
		b.WriteString(renderProposal(state.Proposal) + "\n")
	}
	return b.String()
}

func stageHeading(stage framework.Stage) string {
	return fmt.Sprintf("Stage %d: %s", stage.Index(), stage.Title())
}

func renderExploration(e framework.ExplorationResult) string {
	lines := []string{
		labelStyle.Render(strings.TrimSpace(e.Icon+" "+e.AgentName)) + dimStyle.Render(" ("+e.Model+")"),
		field("Key concepts", e.KeyConcepts.Join(", ")),
		field("Frameworks", e.TheoreticalFrameworks.Join(", ")),
		field("Clear", e.WhatsClear.String()),
		field("Fuzzy", e.WhatsFuzzy.String()),
		field("Questions", e.ImportantQuestions.Join("; ")),
		field("Considerations", e.Considerations.String()),
	}
	return boxStyle.Render(joinLines(lines))
}

func renderReview(r framework.ReviewResult) string {
	ranking := make([]string, len(r.Ranking))
	for i, n := range r.Ranking {
		ranking[i] = fmt.Sprintf("#%d", n)
	}
	rankLine := strings.Join(ranking, " > ")
	if !r.RankingValid {
		rankLine += " " + errorStyle.Render("("+r.RankingIssue+")")
	}
	lines := []string{
		labelStyle.Render(strings.TrimSpace(r.Icon + " " + r.ReviewerName)),
		field("Ranking", rankLine),
		field("Commentary", r.OverallCommentary.String()),
	}
	for _, c := range r.Reviews {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("Idea #%d: +%s / -%s",
			c.IdeaNumber, c.Strengths.Join(", "), c.Weaknesses.Join(", "))))
	}
	return boxStyle.Render(joinLines(lines))
}

func renderSynthesis(s *framework.SynthesisRecord) string {
	lines := []string{
		field("Clarified focus", s.ClarifiedFocus.String()),
		field("Foundations", s.TheoreticalFoundations.Join(", ")),
		field("Key tensions", s.KeyTensions.Join("; ")),
		field("Critical questions", s.CriticalQuestions.Join("; ")),
		field("Integrated perspectives", s.IntegratedPerspectives.String()),
		field("Peer review insights", s.PeerReviewInsights.String()),
		field("Next steps", s.RecommendedNextSteps.Join("; ")),
	}
	if s.Degraded {
		lines = append([]string{errorStyle.Render("Response could not be parsed; showing raw text.")}, lines...)
	}
	return boxStyle.Render(joinLines(lines))
}

func renderProposal(p *framework.ProposalRecord) string {
	lines := []string{
		labelStyle.Render(p.Title.String()),
		field("Research question", p.ResearchQuestion.String()),
		field("Background", p.Background.String()),
		field("Methodology", p.Methodology.String()),
		field("Expected contribution", p.ExpectedContribution.String()),
		field("Feasibility", p.FeasibilityNotes.String()),
	}
	if p.Degraded {
		lines = append([]string{errorStyle.Render("Response could not be parsed; showing raw text.")}, lines...)
	}
	return boxStyle.Render(joinLines(lines))
}

// renderActivity formats the activity log, one styled line per entry.
func renderActivity(entries []framework.ActivityEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(renderEntry(e) + "\n")
	}
	return b.String()
}

func renderEntry(e framework.ActivityEntry) string {
	stamp := dimStyle.Render(e.Timestamp.Format("15:04:05"))
	var msg string
	switch e.Level {
	case framework.LevelSuccess:
		msg = successStyle.Render(e.Message)
	case framework.LevelProgress:
		msg = progressStyle.Render(e.Message)
	case framework.LevelError:
		msg = errorStyle.Render(e.Message)
	default:
		msg = e.Message
	}
	return stamp + " " + msg
}

func field(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return labelStyle.Render(label+":") + " " + value
}

func joinLines(lines []string) string {
	kept := lines[:0]
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
