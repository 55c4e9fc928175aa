// Package personality tracks how the bot's tone should evolve from the
// conversations it sees and renders that state into a system prompt. It is a
// best-effort keyword heuristic, not sentiment analysis.
package personality

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Trait names. Each trait is a 0-100 dial.
const (
	TraitFriendliness = "friendliness" // cold to warm
	TraitFormality    = "formality"    // casual to formal
	TraitHumor        = "humor"        // serious to humorous
	TraitVerbosity    = "verbosity"    // concise to verbose
	TraitHelpfulness  = "helpfulness"  // minimal to maximum effort
)

// evolutionInterval is how many interactions pass between natural drift steps.
const evolutionInterval = 10

// topicRule adjusts traits when any of its keywords appear in a message.
type topicRule struct {
	topic       string
	keywords    []string
	adjustments map[string]int
}

var topicRules = []topicRule{
	{
		topic:    "coding",
		keywords: []string{"code", "program", "function", "bug", "error"},
		adjustments: map[string]int{
			TraitFormality: 5,
			TraitVerbosity: -3,
		},
	},
	{
		topic:    "polite",
		keywords: []string{"help", "please", "thanks", "thank you"},
		adjustments: map[string]int{
			TraitFriendliness: 3,
		},
	},
	{
		topic:    "humor",
		keywords: []string{"lol", "haha", "funny", "😂", "🤣"},
		adjustments: map[string]int{
			TraitHumor:     5,
			TraitFormality: -5,
		},
	},
	{
		topic:    "detailed",
		keywords: []string{"explain", "detail", "elaborate", "more"},
		adjustments: map[string]int{
			TraitVerbosity:   5,
			TraitHelpfulness: 3,
		},
	},
	{
		topic:    "brief",
		keywords: []string{"quick", "brief", "short", "tldr"},
		adjustments: map[string]int{
			TraitVerbosity: -5,
		},
	},
}

// Tracker holds the evolving personality state. Safe for concurrent use; it is
// constructed explicitly and injected, never a package singleton.
type Tracker struct {
	mu               sync.Mutex
	interactionCount int
	topics           map[string]int
	userInteractions map[string]int
	traits           map[string]int
	startTime        time.Time
}

// NewTracker creates a Tracker with the default trait baseline.
func NewTracker() *Tracker {
	return &Tracker{
		topics:           make(map[string]int),
		userInteractions: make(map[string]int),
		traits: map[string]int{
			TraitFriendliness: 50,
			TraitFormality:    50,
			TraitHumor:        50,
			TraitVerbosity:    50,
			TraitHelpfulness:  70,
		},
		startTime: time.Now(),
	}
}

// RecordInteraction updates topic counts and trait dials from one message.
func (t *Tracker) RecordInteraction(userID, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.interactionCount++
	t.userInteractions[userID]++

	lower := strings.ToLower(content)
	for _, rule := range topicRules {
		if !containsAny(lower, rule.keywords) {
			continue
		}
		t.topics[rule.topic]++
		for trait, amount := range rule.adjustments {
			t.adjust(trait, amount)
		}
	}

	if t.interactionCount%evolutionInterval == 0 {
		t.naturalEvolution()
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// adjust moves a trait by amount, clamped to [0, 100]. Caller holds the lock.
func (t *Tracker) adjust(trait string, amount int) {
	value, ok := t.traits[trait]
	if !ok {
		return
	}
	value += amount
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	t.traits[trait] = value
}

// naturalEvolution drifts extreme traits back toward the middle so one loud
// channel cannot permanently skew the bot. Caller holds the lock.
func (t *Tracker) naturalEvolution() {
	for trait, value := range t.traits {
		if value > 60 {
			t.adjust(trait, -1)
		} else if value < 40 {
			t.adjust(trait, 1)
		}
	}
}

// SystemPrompt renders the current personality into a system prompt.
func (t *Tracker) SystemPrompt() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	parts := []string{
		"You are DisClaude, a helpful Discord assistant powered by Claude AI.",
	}

	switch {
	case t.traits[TraitFriendliness] > 70:
		parts = append(parts, "You are warm, enthusiastic, and use friendly emojis occasionally.")
	case t.traits[TraitFriendliness] > 40:
		parts = append(parts, "You are friendly and approachable.")
	default:
		parts = append(parts, "You are professional and direct.")
	}

	if t.traits[TraitFormality] > 70 {
		parts = append(parts, "You communicate formally and professionally.")
	} else if t.traits[TraitFormality] < 30 {
		parts = append(parts, "You use casual language and can be playful.")
	}

	if t.traits[TraitHumor] > 70 {
		parts = append(parts, "You enjoy witty remarks and occasional jokes.")
	} else if t.traits[TraitHumor] > 40 {
		parts = append(parts, "You can make light jokes when appropriate.")
	}

	if t.traits[TraitVerbosity] > 70 {
		parts = append(parts, "You provide detailed, comprehensive explanations.")
	} else if t.traits[TraitVerbosity] < 30 {
		parts = append(parts, "You keep responses concise and to the point.")
	}

	if t.traits[TraitHelpfulness] > 80 {
		parts = append(parts, "You go above and beyond to help users, offering examples and alternatives.")
	} else if t.traits[TraitHelpfulness] > 50 {
		parts = append(parts, "You are helpful and thorough in your responses.")
	}

	if t.interactionCount > 100 {
		parts = append(parts, fmt.Sprintf("You've had %d conversations and have developed a mature, experienced tone.", t.interactionCount))
	} else if t.interactionCount > 20 {
		parts = append(parts, "You're becoming familiar with the community.")
	}

	if topic, count := t.topTopic(); count > 10 {
		switch topic {
		case "coding":
			parts = append(parts, "You're particularly knowledgeable about programming.")
		case "humor":
			parts = append(parts, "You've noticed this community enjoys humor.")
		}
	}

	return strings.Join(parts, " ")
}

// topTopic returns the most recorded topic. Caller holds the lock.
func (t *Tracker) topTopic() (string, int) {
	var topic string
	var count int
	for name, n := range t.topics {
		if n > count {
			topic, count = name, n
		}
	}
	return topic, count
}

// Summary is a read-only snapshot of the tracker state.
type Summary struct {
	Traits       map[string]int `json:"traits"`
	Interactions int            `json:"interactions"`
	UniqueUsers  int            `json:"unique_users"`
	UptimeHours  float64        `json:"uptime_hours"`
}

// Snapshot returns a copy of the current state for admin inspection.
func (t *Tracker) Snapshot() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	traits := make(map[string]int, len(t.traits))
	for k, v := range t.traits {
		traits[k] = v
	}
	return Summary{
		Traits:       traits,
		Interactions: t.interactionCount,
		UniqueUsers:  len(t.userInteractions),
		UptimeHours:  time.Since(t.startTime).Hours(),
	}
}

// Trait returns the current value of one trait.
func (t *Tracker) Trait(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.traits[name]
}
