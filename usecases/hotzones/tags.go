//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2024 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package hotzones

// componentRule tags a zone when one center component exceeds a fixed
// threshold. Component positions follow the folded vector layout.
type componentRule struct {
	component int
	threshold float64
	tag       string
}

var componentRules = []componentRule{
	{0, 0.65, "high value"},
	{1, 0.60, "volatile mix"},
	{2, 0.55, "dex activity"},
	{3, 0.70, "bridge flow"},
	{5, 0.60, "contract heavy"},
	{7, 0.50, "compliance alert"},
}

// signalVocabulary is the closed set of context-tag categories the
// detector accepts from external scorers.
var signalVocabulary = map[string]struct{}{
	"DEX_ACTIVITY":     {},
	"BRIDGE_FLOW":      {},
	"HIGH_VALUE":       {},
	"COMPLIANCE_ALERT": {},
	"MEV_PATTERN":      {},
	"WASH_TRADING":     {},
	"CONTRACT_DEPLOY":  {},
	"MIXER_PROXIMITY":  {},
}

const maxContextTags = 3

// assignTags applies the fixed component rules to a zone center, falling
// back to "mixed" if nothing triggers, then appends up to three context
// tags that belong to the signal vocabulary.
func assignTags(center []float64, contextTags []string) []string {
	var tags []string
	for _, rule := range componentRules {
		if rule.component < len(center) && center[rule.component] > rule.threshold {
			tags = append(tags, rule.tag)
		}
	}
	if len(tags) == 0 {
		tags = append(tags, "mixed")
	}

	appended := 0
	seen := make(map[string]struct{}, len(contextTags))
	for _, tag := range contextTags {
		if appended == maxContextTags {
			break
		}
		if _, known := signalVocabulary[tag]; !known {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		appended++
	}

	return tags
}
