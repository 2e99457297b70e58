package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lexcodex/swarmcouncil/framework"
)

const (
	// SynthesisSystemPrompt pushes the synthesis model towards bare JSON.
	SynthesisSystemPrompt = "You are a JSON-only response bot. You MUST output ONLY valid JSON with no other text, no markdown formatting, no explanations. Start with { and end with }. You synthesize research perspectives into structured JSON."
	// ProposalSystemPrompt frames the proposal writer.
	ProposalSystemPrompt = "You are a research proposal writer who creates concrete, feasible study designs."

	reviewerSuffix = " You are now acting as an anonymous peer reviewer."
)

// ReviewerSystemPrompt is the persona prompt with the reviewer framing.
func ReviewerSystemPrompt(profile framework.AgentProfile) string {
	return profile.SystemPrompt + reviewerSuffix
}

// ExplorationPrompt asks one persona for its take on topic.
func ExplorationPrompt(topic string, profile framework.AgentProfile) string {
	return fmt.Sprintf(`A researcher is interested in exploring this topic:

"%s"

From your perspective (%s), help them think through this topic by:
1. Identifying the KEY CONCEPTS and theoretical frameworks that are relevant
2. Highlighting what aspects are CLEAR vs. FUZZY/UNCLEAR and need more definition
3. Suggesting important QUESTIONS they should consider
4. Noting potential CHALLENGES or considerations from your lens

Be concise but insightful. Format as JSON:
{
  "keyConcepts": ["concept1", "concept2", "concept3"],
  "theoreticalFrameworks": ["framework1", "framework2"],
  "whatsClear": "brief statement of what seems well-defined",
  "whatsFuzzy": "what needs clarification or further thought",
  "importantQuestions": ["question1", "question2", "question3"],
  "considerations": "key challenges or factors to consider from your perspective"
}`, topic, profile.Name)
}

// IdeasSummary renders anonymized ideas in the order given.
func IdeasSummary(ideas []framework.AnonymizedIdea) string {
	blocks := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		blocks = append(blocks, fmt.Sprintf(`IDEA #%d:
- Key Concepts: %s
- Frameworks: %s
- What's Clear: %s
- What's Fuzzy: %s
- Important Questions: %s
- Considerations: %s`,
			idea.IdeaNumber,
			idea.KeyConcepts.Join(", "),
			idea.TheoreticalFrameworks.Join(", "),
			idea.WhatsClear,
			idea.WhatsFuzzy,
			idea.ImportantQuestions.Join("; "),
			idea.Considerations))
	}
	return strings.Join(blocks, "\n\n")
}

// ReviewPrompt asks for critiques of count ideas plus a full ranking.
func ReviewPrompt(summary string, count int) string {
	return fmt.Sprintf(`You are conducting an ANONYMOUS PEER REVIEW of research exploration proposals.

Below are %[1]d different proposals exploring the same research topic. Your identity as a reviewer is anonymous, and you DO NOT know who created each proposal.

YOUR TASK:
1. For EACH proposal, identify:
   - Key STRENGTHS (what's valuable/insightful)
   - WEAKNESSES or gaps (what's missing/unclear)
   - MISSING ELEMENTS (what should be added)

2. RANK all proposals from strongest to weakest. The ranking must contain every idea number from 1 to %[1]d exactly once.

Be objective and constructive. Focus on the quality of ideas, not the author.

PROPOSALS TO REVIEW:
%[2]s

Format your review as JSON:
{
  "reviews": [
    {
      "ideaNumber": 1,
      "strengths": ["strength1", "strength2"],
      "weaknesses": ["weakness1", "weakness2"],
      "missingElements": ["missing1", "missing2"]
    },
    ... (one for each idea)
  ],
  "ranking": %[3]s,
  "overallCommentary": "brief synthesis of what patterns you see across proposals"
}

The ranking array should list idea numbers from strongest to weakest.`, count, summary, exampleRanking(count))
}

func exampleRanking(count int) string {
	order := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		order = append(order, strconv.Itoa(i))
	}
	if len(order) > 1 {
		order[0], order[1] = order[1], order[0]
	}
	return "[" + strings.Join(order, ", ") + "]"
}

// originalIdeas renders explorations with their authors, noting the idea
// number each one carried during review when assignments are known.
func originalIdeas(explorations []framework.ExplorationResult, assignments map[int]string) string {
	numberOf := make(map[string]int, len(assignments))
	for number, agentID := range assignments {
		numberOf[agentID] = number
	}
	blocks := make([]string, 0, len(explorations))
	for _, exp := range explorations {
		header := fmt.Sprintf("%s (%s):", exp.AgentName, exp.Icon)
		if number, ok := numberOf[exp.AgentID]; ok {
			header = fmt.Sprintf("%s (%s), reviewed as Idea #%d:", exp.AgentName, exp.Icon, number)
		}
		blocks = append(blocks, fmt.Sprintf(`%s
- Key Concepts: %s
- Frameworks: %s
- What's Clear: %s
- What's Fuzzy: %s
- Questions: %s
- Considerations: %s`,
			header,
			exp.KeyConcepts.Join(", "),
			exp.TheoreticalFrameworks.Join(", "),
			exp.WhatsClear,
			exp.WhatsFuzzy,
			exp.ImportantQuestions.Join("; "),
			exp.Considerations))
	}
	return strings.Join(blocks, "\n\n")
}

func peerCritiques(reviews []framework.ReviewResult) string {
	blocks := make([]string, 0, len(reviews))
	for _, review := range reviews {
		var detail strings.Builder
		for i, c := range review.Reviews {
			if i > 0 {
				detail.WriteString("\n")
			}
			fmt.Fprintf(&detail, "  Idea #%d:", c.IdeaNumber)
			fmt.Fprintf(&detail, "\n    ✓ Strengths: %s", c.Strengths.Join("; "))
			fmt.Fprintf(&detail, "\n    ✗ Weaknesses: %s", c.Weaknesses.Join("; "))
			fmt.Fprintf(&detail, "\n    + Missing: %s", c.MissingElements.Join("; "))
		}
		ranking := make([]string, 0, len(review.Ranking))
		for _, n := range review.Ranking {
			ranking = append(ranking, fmt.Sprintf("Idea #%d", n))
		}
		blocks = append(blocks, fmt.Sprintf(`%s (%s) - Peer Review:
Overall Commentary: %s
Ranking (strongest to weakest): %s

Detailed Reviews:
%s`, review.ReviewerName, review.Icon, review.OverallCommentary, strings.Join(ranking, ", "), detail.String()))
	}
	return strings.Join(blocks, "\n\n")
}

// SynthesisPrompt merges explorations and, when present, peer reviews into a
// single synthesis request. Without reviews the peerReviewInsights field is
// not requested.
func SynthesisPrompt(topic string, explorations []framework.ExplorationResult, reviews []framework.ReviewResult, assignments map[int]string) string {
	if len(reviews) == 0 {
		return fmt.Sprintf(`A researcher asked about: "%s"

You have access to ORIGINAL IDEAS from %d different expert perspectives.

YOUR TASK - Create a SYNTHESIS that:
- Integrates the BEST ELEMENTS from the different perspectives
- Surfaces the TENSIONS between them
- Combines COMPLEMENTARY INSIGHTS across perspectives

ORIGINAL IDEAS:
%s

CRITICAL: You MUST respond with ONLY a valid JSON object. No explanations, no markdown, no text before or after. Start your response with { and end with }.

Respond with this exact JSON structure (fill in the values):
{
  "clarifiedFocus": "your refined understanding here",
  "theoreticalFoundations": ["framework1", "framework2", "framework3"],
  "keyTensions": ["tension1", "tension2"],
  "criticalQuestions": ["question1", "question2", "question3"],
  "integratedPerspectives": "how perspectives complement each other",
  "recommendedNextSteps": ["step1", "step2", "step3"]
}`, topic, len(explorations), originalIdeas(explorations, nil))
	}
	return fmt.Sprintf(`A researcher asked about: "%s"

You have access to:
1. ORIGINAL IDEAS from %d different expert perspectives
2. PEER REVIEW CRITIQUES where each expert anonymously reviewed ALL ideas

YOUR TASK - Create a SUPERIOR SYNTHESIS that:
- Integrates the BEST ELEMENTS from multiple original proposals
- Addresses WEAKNESSES identified in peer reviews
- Combines COMPLEMENTARY INSIGHTS across perspectives
- Fills in MISSING ELEMENTS noted by reviewers

ORIGINAL IDEAS:
%s

PEER REVIEW CRITIQUES:
%s

CRITICAL: You MUST respond with ONLY a valid JSON object. No explanations, no markdown, no text before or after. Start your response with { and end with }.

Respond with this exact JSON structure (fill in the values):
{
  "clarifiedFocus": "your refined understanding here",
  "theoreticalFoundations": ["framework1", "framework2", "framework3"],
  "keyTensions": ["tension1", "tension2"],
  "criticalQuestions": ["question1", "question2", "question3"],
  "integratedPerspectives": "how perspectives complement each other",
  "peerReviewInsights": "key insights from peer review",
  "recommendedNextSteps": ["step1", "step2", "step3"]
}`, topic, len(explorations), originalIdeas(explorations, assignments), peerCritiques(reviews))
}

// ProposalPrompt turns a synthesis into a proposal request.
func ProposalPrompt(topic string, synthesis *framework.SynthesisRecord) string {
	return fmt.Sprintf(`Based on the researcher's interest in: "%s"

And the synthesized exploration showing:
- Clarified Focus: %s
- Theoretical Foundations: %s
- Key Tensions: %s
- Critical Questions: %s

Generate a concrete research proposal. Format as JSON:
{
  "title": "proposed study title",
  "researchQuestion": "specific, answerable research question",
  "background": "brief background explaining the gap this addresses",
  "methodology": "proposed research design and methods",
  "expectedContribution": "what this will add to the field",
  "feasibilityNotes": "practical considerations for implementation"
}`, topic,
		synthesis.ClarifiedFocus,
		synthesis.TheoreticalFoundations.Join(", "),
		synthesis.KeyTensions.Join("; "),
		synthesis.CriticalQuestions.Join("; "))
}
