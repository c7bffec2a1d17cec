package service

import "github.com/noah-isme/sma-transcript-api/internal/models"

// evalScope is what a condition may read while judging one entity.
type evalScope struct {
	lookup    *scoreLookup
	selfScore float64
	selfMarks []models.NotationMark
}

// criteriaNode is one node of a compiled criteria tree.
type criteriaNode interface {
	eval(scope evalScope) bool
}

// anyOf holds when at least one child holds. An empty anyOf never holds.
type anyOf []criteriaNode

func (n anyOf) eval(scope evalScope) bool {
	for _, child := range n {
		if child.eval(scope) {
			return true
		}
	}
	return false
}

// allOf holds when every child holds.
type allOf []criteriaNode

func (n allOf) eval(scope evalScope) bool {
	for _, child := range n {
		if !child.eval(scope) {
			return false
		}
	}
	return true
}

type conditionNode struct {
	condition models.Condition
}

func (n conditionNode) eval(scope evalScope) bool {
	value, ok := n.source(scope)
	if !ok {
		return false
	}
	return compare(value, n.condition.ComparisonOperator, n.condition.Mark)
}

func (n conditionNode) source(scope evalScope) (float64, bool) {
	c := n.condition
	switch c.CriteriaType {
	case models.CriteriaTypeAverage:
		return scope.selfScore, true
	case models.CriteriaTypeMark:
		if c.NotationText == nil {
			return 0, false
		}
		if ref, level, ok := referencedEntity(c); ok {
			entry, found := scope.lookup.get(level, ref)
			if !found {
				return 0, false
			}
			return notationMark(entry.marks, *c.NotationText)
		}
		return notationMark(scope.selfMarks, *c.NotationText)
	default:
		return 0, false
	}
}

// referencedEntity resolves the other entity a MARK condition points at; a
// test reference wins over a subject reference.
func referencedEntity(c models.Condition) (string, models.GradingLevel, bool) {
	if c.Test != nil && *c.Test != "" {
		return *c.Test, models.GradingLevelTest, true
	}
	if c.Subject != nil && *c.Subject != "" {
		return *c.Subject, models.GradingLevelSubject, true
	}
	return "", "", false
}

func compare(value float64, op models.ComparisonOperator, threshold float64) bool {
	switch op {
	case models.ComparisonGTE:
		return value >= threshold
	case models.ComparisonLTE:
		return value <= threshold
	case models.ComparisonGT:
		return value > threshold
	case models.ComparisonLT:
		return value < threshold
	case models.ComparisonE:
		return value == threshold
	default:
		return false
	}
}

// compileCriteria turns the stored OR-of-AND groups for a level into a tree.
// A nil set compiles to an empty anyOf.
func compileCriteria(set *models.CriteriaSet, level models.GradingLevel) anyOf {
	groups := set.GroupsFor(level)
	tree := make(anyOf, 0, len(groups))
	for _, group := range groups {
		node := make(allOf, 0, len(group.Conditions))
		for _, condition := range group.Conditions {
			node = append(node, conditionNode{condition: condition})
		}
		tree = append(tree, node)
	}
	return tree
}

// decide applies the pass/fail rule: fail criteria take precedence and an
// entity without satisfied pass criteria fails. An entity with no criteria at
// all therefore fails.
func decide(criteria models.PassingCriteria, level models.GradingLevel, scope evalScope) models.ResultStatus {
	passed := compileCriteria(criteria.PassCriteria, level).eval(scope)
	failed := compileCriteria(criteria.FailCriteria, level).eval(scope)
	if !failed && passed {
		return models.ResultPass
	}
	return models.ResultFail
}
