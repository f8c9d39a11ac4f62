package schema

import (
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/quantity"
	"github.com/bpxgo/validator/pkg/section"
)

// Cell field names.
const (
	FieldElectrodeArea        = "Electrode area [m2]"
	FieldExternalSurfaceArea  = "External surface area [m2]"
	FieldVolume               = "Volume [m3]"
	FieldElectrodePairs       = "Number of electrode pairs connected in parallel to make a cell"
	FieldLowerVoltageCutoff   = "Lower voltage cut-off [V]"
	FieldUpperVoltageCutoff   = "Upper voltage cut-off [V]"
	FieldNominalCapacity      = "Nominal cell capacity [A.h]"
	FieldAmbientTemperature   = "Ambient temperature [K]"
	FieldInitialTemperature   = "Initial temperature [K]"
	FieldReferenceTemperature = "Reference temperature [K]"
	FieldDensity              = "Density [kg.m-3]"
	FieldSpecificHeatCapacity = "Specific heat capacity [J.K-1.kg-1]"
	FieldThermalConductivity  = "Thermal conductivity [W.m-1.K-1]"
)

// Cell holds parameters that belong to no single component.
type Cell struct {
	ElectrodeArea        *float64
	ExternalSurfaceArea  *float64
	Volume               *float64
	ElectrodePairs       *int
	LowerVoltageCutoff   *float64
	UpperVoltageCutoff   *float64
	NominalCapacity      *float64
	AmbientTemperature   *float64
	InitialTemperature   *float64
	ReferenceTemperature *float64
	Density              *float64
	SpecificHeatCapacity *float64
	ThermalConductivity  *float64
}

// DecodeCell decodes the Cell section.
func DecodeCell(raw any, path issue.Path, partial bool) (*Cell, error) {
	o, err := section.Open(raw, path, partial)
	if err != nil {
		return nil, err
	}
	c := &Cell{
		ElectrodeArea:        o.Float(FieldElectrodeArea, true),
		ExternalSurfaceArea:  o.Float(FieldExternalSurfaceArea, false),
		Volume:               o.Float(FieldVolume, false),
		ElectrodePairs:       o.Int(FieldElectrodePairs, true),
		LowerVoltageCutoff:   o.Float(FieldLowerVoltageCutoff, true),
		UpperVoltageCutoff:   o.Float(FieldUpperVoltageCutoff, true),
		NominalCapacity:      o.Float(FieldNominalCapacity, true),
		AmbientTemperature:   o.Float(FieldAmbientTemperature, true),
		InitialTemperature:   o.Float(FieldInitialTemperature, false),
		ReferenceTemperature: o.Float(FieldReferenceTemperature, false),
		Density:              o.Float(FieldDensity, false),
		SpecificHeatCapacity: o.Float(FieldSpecificHeatCapacity, false),
		ThermalConductivity:  o.Float(FieldThermalConductivity, false),
	}
	if err := o.Close(); err != nil {
		return nil, err
	}
	return c, nil
}

// Raw renders the cell in document form.
func (c *Cell) Raw() map[string]any {
	m := make(map[string]any)
	putFloat(m, FieldElectrodeArea, c.ElectrodeArea)
	putFloat(m, FieldExternalSurfaceArea, c.ExternalSurfaceArea)
	putFloat(m, FieldVolume, c.Volume)
	putInt(m, FieldElectrodePairs, c.ElectrodePairs)
	putFloat(m, FieldLowerVoltageCutoff, c.LowerVoltageCutoff)
	putFloat(m, FieldUpperVoltageCutoff, c.UpperVoltageCutoff)
	putFloat(m, FieldNominalCapacity, c.NominalCapacity)
	putFloat(m, FieldAmbientTemperature, c.AmbientTemperature)
	putFloat(m, FieldInitialTemperature, c.InitialTemperature)
	putFloat(m, FieldReferenceTemperature, c.ReferenceTemperature)
	putFloat(m, FieldDensity, c.Density)
	putFloat(m, FieldSpecificHeatCapacity, c.SpecificHeatCapacity)
	putFloat(m, FieldThermalConductivity, c.ThermalConductivity)
	return m
}

// Electrolyte field names.
const (
	FieldInitialConcentration         = "Initial concentration [mol.m-3]"
	FieldTransferenceNumber           = "Cation transference number"
	FieldDiffusivity                  = "Diffusivity [m2.s-1]"
	FieldDiffusivityActivationEnergy  = "Diffusivity activation energy [J.mol-1]"
	FieldConductivity                 = "Conductivity [S.m-1]"
	FieldConductivityActivationEnergy = "Conductivity activation energy [J.mol-1]"
)

// Electrolyte holds electrolyte parameters.
type Electrolyte struct {
	InitialConcentration         *float64
	TransferenceNumber           *float64
	Diffusivity                  *quantity.Quantity
	DiffusivityActivationEnergy  *float64
	Conductivity                 *quantity.Quantity
	ConductivityActivationEnergy *float64
}

// DecodeElectrolyte decodes the Electrolyte section.
func DecodeElectrolyte(raw any, path issue.Path, partial bool) (*Electrolyte, error) {
	o, err := section.Open(raw, path, partial)
	if err != nil {
		return nil, err
	}
	e := &Electrolyte{
		InitialConcentration:         o.Float(FieldInitialConcentration, true),
		TransferenceNumber:           o.Float(FieldTransferenceNumber, true),
		Diffusivity:                  quantity.Field(o, FieldDiffusivity, true),
		DiffusivityActivationEnergy:  o.Float(FieldDiffusivityActivationEnergy, false),
		Conductivity:                 quantity.Field(o, FieldConductivity, true),
		ConductivityActivationEnergy: o.Float(FieldConductivityActivationEnergy, false),
	}
	if err := o.Close(); err != nil {
		return nil, err
	}
	return e, nil
}

// Raw renders the electrolyte in document form.
func (e *Electrolyte) Raw() map[string]any {
	m := make(map[string]any)
	putFloat(m, FieldInitialConcentration, e.InitialConcentration)
	putFloat(m, FieldTransferenceNumber, e.TransferenceNumber)
	putQuantity(m, FieldDiffusivity, e.Diffusivity)
	putFloat(m, FieldDiffusivityActivationEnergy, e.DiffusivityActivationEnergy)
	putQuantity(m, FieldConductivity, e.Conductivity)
	putFloat(m, FieldConductivityActivationEnergy, e.ConductivityActivationEnergy)
	return m
}

// Contact field names shared by electrodes and the separator.
const (
	FieldThickness           = "Thickness [m]"
	FieldPorosity            = "Porosity"
	FieldTransportEfficiency = "Transport efficiency"
)

// Separator holds separator parameters.
type Separator struct {
	Thickness           *float64
	Porosity            *float64
	TransportEfficiency *float64
}

// DecodeSeparator decodes the Separator section.
func DecodeSeparator(raw any, path issue.Path, partial bool) (*Separator, error) {
	o, err := section.Open(raw, path, partial)
	if err != nil {
		return nil, err
	}
	s := &Separator{
		Thickness:           o.Float(FieldThickness, true),
		Porosity:            o.Float(FieldPorosity, true),
		TransportEfficiency: o.Float(FieldTransportEfficiency, true),
	}
	if err := o.Close(); err != nil {
		return nil, err
	}
	return s, nil
}

// Raw renders the separator in document form.
func (s *Separator) Raw() map[string]any {
	m := make(map[string]any)
	putFloat(m, FieldThickness, s.Thickness)
	putFloat(m, FieldPorosity, s.Porosity)
	putFloat(m, FieldTransportEfficiency, s.TransportEfficiency)
	return m
}
