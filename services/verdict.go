package services

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"cyberguard/models"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

//go:embed verdict_rules.yaml
var defaultVerdictRulesYAML []byte

// VerdictClassifier maps free-text model output onto a presentation token.
type VerdictClassifier interface {
	Classify(verdict string) models.VerdictToken
}

type VerdictRule struct {
	Name     string              `yaml:"name"`
	Token    models.VerdictToken `yaml:"token"`
	Keywords []string            `yaml:"keywords"`
}

// VerdictRules is a best-effort keyword matcher over open-vocabulary verdicts,
// not a closed taxonomy. Rule order is precedence.
type VerdictRules struct {
	Version  int                 `yaml:"version"`
	Rules    []VerdictRule       `yaml:"rules"`
	Fallback models.VerdictToken `yaml:"fallback"`
}

var defaultVerdictRules = mustParseVerdictRules(defaultVerdictRulesYAML)

func DefaultVerdictRules() *VerdictRules {
	return defaultVerdictRules
}

func ClassifyVerdict(verdict string) models.VerdictToken {
	return defaultVerdictRules.Classify(verdict)
}

func (r *VerdictRules) Classify(verdict string) models.VerdictToken {
	fallback := r.Fallback
	if fallback == "" {
		fallback = models.VerdictUnknown
	}
	text := strings.ToLower(strings.TrimSpace(verdict))
	if text == "" {
		return fallback
	}
	for _, rule := range r.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Token
			}
		}
	}
	return fallback
}

func ParseVerdictRules(data []byte) (*VerdictRules, error) {
	var rules VerdictRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse verdict rules: %w", err)
	}
	if len(rules.Rules) == 0 {
		return nil, fmt.Errorf("verdict rules: no rules defined")
	}
	for i := range rules.Rules {
		rule := &rules.Rules[i]
		if rule.Token == "" {
			return nil, fmt.Errorf("verdict rule %d (%s): token is required", i, rule.Name)
		}
		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("verdict rule %d (%s): at least one keyword is required", i, rule.Name)
		}
		for j, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			// an empty keyword is a substring of every verdict
			if kw == "" {
				return nil, fmt.Errorf("verdict rule %d (%s): keyword %d is empty", i, rule.Name, j)
			}
			rule.Keywords[j] = kw
		}
	}
	return &rules, nil
}

func LoadVerdictRules(path string) (*VerdictRules, error) {
	log.Printf("[VERDICT] Loading verdict rules from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read verdict rules: %w", err)
	}
	rules, err := ParseVerdictRules(data)
	if err != nil {
		return nil, err
	}

	log.Printf("[VERDICT] ✓ Rules v%d loaded (%d rules)", rules.Version, len(rules.Rules))
	return rules, nil
}

func mustParseVerdictRules(data []byte) *VerdictRules {
	rules, err := ParseVerdictRules(data)
	if err != nil {
		panic(err)
	}
	return rules
}

// RuleStore holds the active rule set and swaps it atomically on reload.
type RuleStore struct {
	current atomic.Pointer[VerdictRules]
	path    string
}

func NewRuleStore(path string) (*RuleStore, error) {
	s := &RuleStore{path: path}
	if path == "" {
		s.current.Store(defaultVerdictRules)
		return s, nil
	}
	rules, err := LoadVerdictRules(path)
	if err != nil {
		return nil, err
	}
	s.current.Store(rules)
	return s, nil
}

func (s *RuleStore) Rules() *VerdictRules {
	return s.current.Load()
}

func (s *RuleStore) Classify(verdict string) models.VerdictToken {
	return s.current.Load().Classify(verdict)
}

// Reload re-reads the rule file. On error the previous rules stay active.
func (s *RuleStore) Reload() error {
	if s.path == "" {
		return nil
	}
	rules, err := LoadVerdictRules(s.path)
	if err != nil {
		return err
	}
	s.current.Store(rules)
	return nil
}

// Watch reloads the rule file whenever it changes, until ctx is done.
// Editors often replace files instead of writing them, so the directory is watched.
func (s *RuleStore) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create verdict rules watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch verdict rules: %w", err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(s.path)
		var debounce <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				debounce = time.After(100 * time.Millisecond)
			case <-debounce:
				debounce = nil
				if err := s.Reload(); err != nil {
					log.Printf("[VERDICT] ⚠ Reload failed, keeping previous rules: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[VERDICT] ⚠ Watcher error: %v", err)
			}
		}
	}()

	log.Printf("[VERDICT] 👀 Watching %s for changes", s.path)
	return nil
}
