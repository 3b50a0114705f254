package model

// RefModel is the in-memory reference Model implementation used by the
// simulator host and the engine test suite in place of the real
// project/configuration store (out of scope for this module).
type RefModel struct {
	project  Project
	settings Settings
}

// NewRefModel returns a RefModel with a freshly defaulted project and
// identity calibration.
func NewRefModel() *RefModel {
	m := &RefModel{}
	m.project = *NewProject()
	m.settings.Calibration = DefaultCalibration()
	return m
}

func (m *RefModel) Project() *Project   { return &m.project }
func (m *RefModel) Settings() *Settings { return &m.settings }
