// Package generator implements the rule-based attack modes.
//
// Each mode turns a model.GenerationContext into a bounded list of distinct
// candidates:
//   - ContextualMode ("social"): tokens of the archive name, its directories,
//     user keywords and harvested metadata, with leet, case and affix variants
//   - DateRangeMode ("date"): years, year-months and special dates in many layouts
//   - KeyboardWalkMode ("keyboard"): walks over the QWERTY adjacency graph
//   - DictionaryMode ("dictionary"): the phased SmartIterator over common
//     passwords, rule variants and a bounded Markov enumeration
//
// The learned and neural modes live in the pattern and neural packages and
// implement the same AttackMode interface.
package generator
