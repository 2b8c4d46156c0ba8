package pipeline

import (
	"sort"
	"strings"

	"chatweave/internal/ir"
	"chatweave/internal/match"
)

// BuildSessionIR aligns QA units from several platforms into one session
// document. Units asking the same question land in the same prompt group;
// groups are chained with sequential depends_on, reflecting that a chat
// session's later questions build on the earlier exchange.
func BuildSessionIR(qaUnits map[ir.Platform]*ir.QAUnitIR, sessionID string, matcher match.Matcher) *ir.MultiModelSessionIR {
	if matcher == nil {
		matcher = match.NewHashMatcher()
	}

	platforms := sortedPlatforms(qaUnits)

	// Flatten in platform order so group order is deterministic.
	var all []ir.QAUnit
	for _, platform := range platforms {
		all = append(all, qaUnits[platform].QAUnits...)
	}

	groups := matcher.Match(all)
	prompts := buildPromptGroups(groups, qaUnits)

	conversations := make([]ir.ConversationRef, 0, len(platforms))
	for _, platform := range platforms {
		conversations = append(conversations, ir.ConversationRef{
			Platform:       platform,
			ConversationID: qaUnits[platform].ConversationID,
		})
	}

	return &ir.MultiModelSessionIR{
		Schema:        ir.SessionSchema,
		SessionID:     sessionID,
		Platforms:     platforms,
		Conversations: conversations,
		Prompts:       prompts,
		Meta:          map[string]any{},
	}
}

func sortedPlatforms(qaUnits map[ir.Platform]*ir.QAUnitIR) []ir.Platform {
	platforms := make([]ir.Platform, 0, len(qaUnits))
	for platform := range qaUnits {
		platforms = append(platforms, platform)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}

func buildPromptGroups(groups [][]ir.QAUnit, qaUnits map[ir.Platform]*ir.QAUnitIR) []ir.PromptGroup {
	prompts := make([]ir.PromptGroup, 0, len(groups))

	for index, group := range groups {
		var dependsOn []string
		if index > 0 {
			dependsOn = []string{ir.PromptKey(index - 1)}
		} else {
			dependsOn = []string{}
		}

		canonical := canonicalUnit(group)

		prompts = append(prompts, ir.PromptGroup{
			PromptKey:       ir.PromptKey(index),
			CanonicalPrompt: buildCanonicalPrompt(canonical),
			DependsOn:       dependsOn,
			PerPlatform:     buildPlatformRefs(group, index, qaUnits),
			Meta:            map[string]any{},
		})
	}
	return prompts
}

// canonicalUnit picks the group's representative by alphabetical platform
// order, keeping the earlier unit on ties.
func canonicalUnit(group []ir.QAUnit) ir.QAUnit {
	best := group[0]
	for _, unit := range group[1:] {
		if unit.Platform < best.Platform {
			best = unit
		}
	}
	return best
}

func buildCanonicalPrompt(unit ir.QAUnit) ir.CanonicalPrompt {
	return ir.CanonicalPrompt{
		Text: promptText(unit),
		Source: ir.PromptSource{
			Platform: unit.Platform,
			QAID:     unit.QAID,
		},
	}
}

// promptText prefers the user's own words; the assistant recap is the
// fallback when the user content is empty.
func promptText(unit ir.QAUnit) *string {
	if unit.QuestionFromUser != nil && strings.TrimSpace(*unit.QuestionFromUser) != "" {
		return unit.QuestionFromUser
	}
	return unit.QuestionFromAssistantSummary
}

func buildPlatformRefs(group []ir.QAUnit, index int, qaUnits map[ir.Platform]*ir.QAUnitIR) []ir.PerPlatformQARef {
	refs := make([]ir.PerPlatformQARef, 0, len(group))

	for _, unit := range group {
		missingPrompt := unit.QuestionFromUser == nil || strings.TrimSpace(*unit.QuestionFromUser) == ""

		// A dependent prompt needs the platform to also have the earlier
		// exchanges; otherwise the model answered without that context.
		missingContext := false
		if index > 0 {
			depIndex := index - 1
			platformIR := qaUnits[unit.Platform]
			if platformIR == nil || depIndex >= len(platformIR.QAUnits) {
				missingContext = true
			}
		}

		var similarity *float64
		if unit.UserQueryHash != nil {
			exact := 1.0
			similarity = &exact
		}

		refs = append(refs, ir.PerPlatformQARef{
			Platform:         unit.Platform,
			QAID:             unit.QAID,
			ConversationID:   unit.ConversationID,
			PromptText:       promptText(unit),
			PromptSimilarity: similarity,
			MissingPrompt:    missingPrompt,
			MissingContext:   missingContext,
		})
	}
	return refs
}
