package prompts

import (
	"fmt"
	"strings"
)

// PlatformRules describes how copy must be shaped for one publishing surface.
type PlatformRules struct {
	Name        string
	MaxLength   int // characters of body text; 0 means no hard limit
	HashtagMax  int
	Format      string
	HookAdvice  string
	ExtraAdvice []string
}

var platformRules = map[string]PlatformRules{
	"tiktok": {
		Name:       "TikTok",
		MaxLength:  2200,
		HashtagMax: 5,
		Format:     "Short spoken-word video script with an on-screen caption.",
		HookAdvice: "Open with a pattern interrupt in the first 2 seconds.",
		ExtraAdvice: []string{
			"Write the body as lines the creator says to camera.",
			"Keep sentences short enough to read as captions.",
		},
	},
	"instagram": {
		Name:       "Instagram",
		MaxLength:  2200,
		HashtagMax: 10,
		Format:     "Feed caption that supports a single image or carousel.",
		HookAdvice: "The first line must work before the 'more' cut-off.",
		ExtraAdvice: []string{
			"Use line breaks between ideas.",
		},
	},
	"linkedin": {
		Name:       "LinkedIn",
		MaxLength:  3000,
		HashtagMax: 3,
		Format:     "Professional text post with short paragraphs.",
		HookAdvice: "Lead with a concrete insight or result, not a greeting.",
		ExtraAdvice: []string{
			"Avoid slang and emoji-heavy formatting.",
		},
	},
	"twitter": {
		Name:       "X (Twitter)",
		MaxLength:  280,
		HashtagMax: 2,
		Format:     "Single post that stands on its own.",
		HookAdvice: "Put the payoff in the first sentence.",
	},
	"facebook": {
		Name:       "Facebook",
		MaxLength:  0,
		HashtagMax: 3,
		Format:     "Conversational post that invites comments.",
		HookAdvice: "Ask a question or tell a one-line story.",
	},
	"threads": {
		Name:       "Threads",
		MaxLength:  500,
		HashtagMax: 1,
		Format:     "Casual text post in a conversational voice.",
		HookAdvice: "Sound like a person, not a brand.",
	},
	"youtube": {
		Name:       "YouTube",
		MaxLength:  5000,
		HashtagMax: 3,
		Format:     "Video description with a title-style hook line.",
		HookAdvice: "State the viewer benefit in the first line.",
		ExtraAdvice: []string{
			"Include a short outline of what the video covers.",
		},
	},
	"blog": {
		Name:       "Blog",
		MaxLength:  0,
		HashtagMax: 0,
		Format:     "Long-form article in markdown with a title and subheadings.",
		HookAdvice: "The introduction states the reader's problem within two sentences.",
	},
	"email": {
		Name:       "Email",
		MaxLength:  0,
		HashtagMax: 0,
		Format:     "Newsletter email. Use the hook as the subject line.",
		HookAdvice: "Subject lines stay under 60 characters.",
		ExtraAdvice: []string{
			"One primary call to action.",
		},
	},
}

var defaultPlatformRules = PlatformRules{
	Name:       "General",
	MaxLength:  0,
	HashtagMax: 5,
	Format:     "Platform-neutral social post.",
	HookAdvice: "Open with the most useful sentence.",
}

// RulesFor returns the formatting rules for a platform name. Unknown
// platforms get general rules.
func RulesFor(platform string) PlatformRules {
	key := strings.ToLower(strings.TrimSpace(platform))
	if key == "x" {
		key = "twitter"
	}
	if rules, ok := platformRules[key]; ok {
		return rules
	}
	return defaultPlatformRules
}

// Render formats the rules as a prompt section.
func (r PlatformRules) Render() string {
	var b strings.Builder
	b.WriteString("## Platform: " + r.Name + "\n")
	b.WriteString("- Format: " + r.Format + "\n")
	b.WriteString("- Hook: " + r.HookAdvice + "\n")
	if r.MaxLength > 0 {
		b.WriteString(fmt.Sprintf("- Body must not exceed %d characters.\n", r.MaxLength))
	}
	if r.HashtagMax > 0 {
		b.WriteString(fmt.Sprintf("- Use at most %d hashtags.\n", r.HashtagMax))
	} else {
		b.WriteString("- Do not use hashtags.\n")
	}
	for _, advice := range r.ExtraAdvice {
		b.WriteString("- " + advice + "\n")
	}
	return b.String()
}
