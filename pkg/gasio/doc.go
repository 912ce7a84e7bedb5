// Package gasio reads gas compositions from the two supported file formats
// and renders quality results as text or JSON reports.
//
// JSON documents wrap the mapping in a "composition" key:
//
//	{"composition": {"CH4": 0.95, "CO2": 0.02, "N2": 0.03}}
//
// CSV files carry a component,mole_fraction header row:
//
//	component,mole_fraction
//	CH4,0.95
//	CO2,0.02
//	N2,0.03
package gasio
