package catalog

import "github.com/goliatone/go-rtm/pkg/domain"

// rootOf maps element types to the aggregate that owns their topic.
var rootOf = map[domain.ElementType]domain.RootKind{
	domain.ElementActivity:    domain.RootActivity,
	domain.ElementPathway:     domain.RootActivity,
	domain.ElementComponent:   domain.RootActivity,
	domain.ElementFeedback:    domain.RootActivity,
	domain.ElementInteractive: domain.RootActivity,
	domain.ElementScenario:    domain.RootActivity,
	domain.ElementWorkspace:   domain.RootWorkspace,
	domain.ElementDocument:    domain.RootDocument,
	domain.ElementAssociation: domain.RootDocument,
}

// RootKindOf returns the root kind for element, or "" when unknown.
func RootKindOf(element domain.ElementType) domain.RootKind {
	return rootOf[element]
}

// shapeFor only requires the ids a payload cannot be rendered without. A
// created or deleted element is identified by its own id; the parent is
// carried when the caller knows it.
func shapeFor(action domain.Action) Shape {
	switch action {
	case domain.ActionCreated, domain.ActionDeleted:
		return Shape{Optional: []Field{FieldParent}}
	case domain.ActionUpdated:
		return Shape{Optional: []Field{FieldParent, FieldConfig}}
	case domain.ActionConfigChange:
		return Shape{Required: []Field{FieldConfig}, Optional: []Field{FieldParent}}
	case domain.ActionReordered:
		return Shape{Required: []Field{FieldOrderedIDs}, Optional: []Field{FieldParent}}
	case domain.ActionMoved:
		return Shape{Required: []Field{FieldParent, FieldFromParent}}
	case domain.ActionAccessGranted, domain.ActionAccessRevoked:
		return Shape{Required: []Field{FieldGrant}}
	}
	return Shape{}
}

// DefaultDefinitions expands the courseware taxonomy into definitions.
func DefaultDefinitions() []Definition {
	core := []domain.Action{
		domain.ActionCreated,
		domain.ActionDeleted,
		domain.ActionConfigChange,
		domain.ActionReordered,
		domain.ActionUpdated,
	}
	extra := map[domain.ElementType][]domain.Action{
		domain.ElementPathway:     {domain.ActionMoved},
		domain.ElementComponent:   {domain.ActionMoved},
		domain.ElementInteractive: {domain.ActionMoved},
		domain.ElementFeedback:    {domain.ActionMoved},
		domain.ElementActivity:    {domain.ActionAccessGranted, domain.ActionAccessRevoked},
		domain.ElementWorkspace:   {domain.ActionAccessGranted, domain.ActionAccessRevoked},
	}

	var defs []Definition
	for _, element := range domain.ElementTypes() {
		actions := append(append([]domain.Action{}, core...), extra[element]...)
		for _, action := range actions {
			defs = append(defs, Definition{
				Kind:    domain.NewEventKind(element, action),
				Element: element,
				Action:  action,
				Root:    rootOf[element],
				Shape:   shapeFor(action),
			})
		}
	}
	return defs
}
