// Package guardrail implements the pre-planning classifier: trivial queries
// (greetings, current date/time) are answered directly and abusive input is
// refused before any agent or LLM is involved. Classification is a pure
// function of the query text evaluated as ordered rules, first match wins, so
// it can run on every request without latency or cost.
package guardrail

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the classification outcome tag.
type Kind int

const (
	// Continue means no rule matched; planning proceeds.
	Continue Kind = iota
	// DirectAnswer short-circuits the pipeline with a ready answer.
	DirectAnswer
	// Refuse terminates the request with a refusal message.
	Refuse
)

// Outcome is the classification result. Answer is set for DirectAnswer and
// Refuse; Rule names the rule that matched for observability.
type Outcome struct {
	Kind   Kind
	Answer string
	Rule   string
}

// Rule is one ordered pattern rule. Match is a pure predicate over the
// normalized (lowercased, trimmed) query; Respond builds the outcome.
type Rule struct {
	Name    string
	Match   func(query string) bool
	Respond func(query string, now time.Time) Outcome
}

// Options configures the classifier.
type Options struct {
	// Rules replaces the default rule set when non-nil.
	Rules []Rule
	// Now overrides the clock used by time-answering rules (tests).
	Now func() time.Time
}

// Classifier evaluates rules top to bottom against incoming queries.
type Classifier struct {
	rules []Rule
	now   func() time.Time
}

// New creates a classifier with the default rules (greeting, date/time,
// abusive input) unless overridden.
func New(optFns ...func(o *Options)) *Classifier {
	opts := Options{
		Rules: DefaultRules(),
		Now:   time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{rules: opts.Rules, now: opts.Now}
}

// Classify runs the ordered rules and returns the first match, or a Continue
// outcome when nothing matched.
func (c *Classifier) Classify(query string) Outcome {
	normalized := strings.ToLower(strings.TrimSpace(query))
	for _, rule := range c.rules {
		if rule.Match(normalized) {
			out := rule.Respond(normalized, c.now())
			out.Rule = rule.Name
			return out
		}
	}
	return Outcome{Kind: Continue}
}

var greetingPrefixes = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "howdy",
}

var dateTimePhrases = []string{
	"what time", "current time", "what's the time", "what is the time",
	"current date", "today's date", "what day is", "what date is",
}

var abusivePhrases = []string{
	"stupid", "idiot", "moron", "shut up", "i hate you", "you suck", "dumb bot",
}

// DefaultRules returns the built-in rule set in evaluation order: abusive
// input first (so "hello you idiot" refuses rather than greets), then
// greeting, then date/time.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "abusive",
			Match: func(q string) bool {
				for _, phrase := range abusivePhrases {
					if strings.Contains(q, phrase) {
						return true
					}
				}
				return false
			},
			Respond: func(string, time.Time) Outcome {
				return Outcome{
					Kind:   Refuse,
					Answer: "I can't help with messages like that. Please rephrase your request and I'll do my best.",
				}
			},
		},
		{
			Name: "greeting",
			Match: func(q string) bool {
				for _, prefix := range greetingPrefixes {
					if q == prefix || strings.HasPrefix(q, prefix+" ") || strings.HasPrefix(q, prefix+"!") || strings.HasPrefix(q, prefix+",") {
						return true
					}
				}
				return false
			},
			Respond: func(string, time.Time) Outcome {
				return Outcome{
					Kind:   DirectAnswer,
					Answer: "Hello! I can route your request to the right assistant. What would you like to do?",
				}
			},
		},
		{
			Name: "datetime",
			Match: func(q string) bool {
				for _, phrase := range dateTimePhrases {
					if strings.Contains(q, phrase) {
						return true
					}
				}
				return false
			},
			Respond: func(q string, now time.Time) Outcome {
				return Outcome{
					Kind:   DirectAnswer,
					Answer: fmt.Sprintf("It is %s on %s.", now.Format("15:04"), now.Format("Monday, January 2, 2006")),
				}
			},
		},
	}
}
