package store

import "pe-scenario-lab/backend/internal/scenario"

var seedComps = map[string][]CompRecord{
	DatasetValuation: {
		{Company: "Alpha", EBITDAMultiple: 8.5, Growth: 10, Margin: 18},
		{Company: "Beta", EBITDAMultiple: 9.2, Growth: 8, Margin: 20},
		{Company: "Gamma", EBITDAMultiple: 7.8, Growth: 7, Margin: 15},
		{Company: "Delta", EBITDAMultiple: 10.1, Growth: 12, Margin: 22},
		{Company: "Epsilon", EBITDAMultiple: 8.0, Growth: 9, Margin: 19},
		{Company: scenario.TargetCompany, EBITDAMultiple: 8.6, Growth: 8, Margin: 19, IsTarget: true},
	},
	DatasetAssociate: {
		{Company: "Alpha", EBITDAMultiple: 9, Growth: 10},
		{Company: "Beta", EBITDAMultiple: 8, Growth: 9},
		{Company: "Gamma", EBITDAMultiple: 11, Growth: 12},
		{Company: scenario.TargetCompany, EBITDAMultiple: 8.5, Growth: 8, IsTarget: true},
	},
}

var seedFinancials = []FinancialRecord{
	{Company: scenario.TargetCompany, Revenue: 120, EBITDA: 25, Employees: 200},
	{Company: "Alpha", Revenue: 130, EBITDA: 23, Employees: 220},
	{Company: "Beta", Revenue: 115, EBITDA: 22, Employees: 210},
	{Company: "Gamma", Revenue: 140, EBITDA: 30, Employees: 230},
	{Company: "Outlier", Revenue: 300, EBITDA: 100, Employees: 250},
}

// seed fills empty reference tables with the built-in data set.
func (d *Database) seed() error {
	for _, dataset := range []string{DatasetValuation, DatasetAssociate} {
		count, err := d.CountComps(dataset)
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := d.ReplaceComps(dataset, seedComps[dataset]); err != nil {
			return err
		}
	}
	var count int64
	if err := d.gorm.Model(&FinancialRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return d.ReplaceFinancials(seedFinancials)
}
