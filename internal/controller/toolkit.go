package controller

import "taskflow/internal/dom"

// Toolkit is the widget layer a host may provide on top of the document:
// tooltips and modal dialogs.
type Toolkit interface {
	// EnableTooltips activates tooltips on the given elements.
	EnableTooltips(targets []*dom.Element)

	// HideModal closes m and reports whether it did.
	HideModal(m *dom.Modal) bool
}

// BasicToolkit has no tooltips and closes modals directly.
type BasicToolkit struct{}

func (BasicToolkit) EnableTooltips([]*dom.Element) {}

func (BasicToolkit) HideModal(m *dom.Modal) bool {
	if m == nil || !m.Open {
		return false
	}
	m.Hide()
	return true
}

// NoopToolkit does nothing. Escape leaves modals open under it.
type NoopToolkit struct{}

func (NoopToolkit) EnableTooltips([]*dom.Element) {}
func (NoopToolkit) HideModal(*dom.Modal) bool     { return false }
